package model

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// INR formats an amount in rupees, rounded to the paisa.
func INR(amount decimal.Decimal) string {
	paise := amount.Shift(2).Round(0).IntPart()
	return money.New(paise, money.INR).Display()
}
