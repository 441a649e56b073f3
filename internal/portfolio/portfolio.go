// Package portfolio values holding sets against live prices and applies
// simulated trades with weighted-average cost basis.
//
// Sells reduce quantity only; realised P&L is not booked anywhere and the
// average price of the remaining position is unchanged.
package portfolio

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/marketview"
	"github.com/bharatvest/sim-engine/internal/model"
)

var (
	// ErrInsufficientShares is returned when a sell exceeds the held quantity.
	ErrInsufficientShares = errors.New("portfolio: not enough shares to sell")

	// ErrNoHolding is returned when selling a symbol that is not held.
	ErrNoHolding = errors.New("portfolio: no holding for symbol")

	// ErrUnknownInstrument is returned when buying a symbol with no live price.
	ErrUnknownInstrument = errors.New("portfolio: unknown instrument")

	// ErrInvalidQuantity is returned for non-positive trade quantities.
	ErrInvalidQuantity = errors.New("portfolio: quantity must be positive")

	// ErrInvalidDirection is returned for directions other than buy or sell.
	ErrInvalidDirection = errors.New("portfolio: direction must be buy or sell")
)

// Valuate computes total investment, current value and overall P&L. Each
// holding's price is taken from the live instrument with the same symbol,
// falling back to the holding's stored CurrentPrice. No rounding is applied.
func Valuate(holdings []model.Holding, live []model.Instrument) model.Valuation {
	prices := marketview.BySymbol(live)

	investment := decimal.Zero
	value := decimal.Zero
	for _, h := range holdings {
		qty := decimal.NewFromInt(h.Quantity)
		price := h.CurrentPrice
		if x, ok := prices[h.Symbol]; ok {
			price = x.Price
		}
		investment = investment.Add(h.AvgPrice.Mul(qty))
		value = value.Add(price.Mul(qty))
	}

	return model.Valuation{
		TotalInvestment: investment,
		CurrentValue:    value,
		OverallPL:       value.Sub(investment),
	}
}

// Apply executes intent against holdings at the live price and returns the
// new holding set. On error holdings are returned unchanged; the input slice
// is never modified.
func Apply(holdings []model.Holding, live []model.Instrument, intent model.TradeIntent) ([]model.Holding, error) {
	if intent.Quantity <= 0 {
		return holdings, ErrInvalidQuantity
	}

	switch intent.Direction {
	case model.Buy:
		x, ok := marketview.BySymbol(live)[intent.Symbol]
		if !ok {
			return holdings, fmt.Errorf("%w: %s", ErrUnknownInstrument, intent.Symbol)
		}
		return buy(holdings, x, intent.Quantity), nil
	case model.Sell:
		return sell(holdings, intent.Symbol, intent.Quantity)
	default:
		return holdings, fmt.Errorf("%w: %q", ErrInvalidDirection, intent.Direction)
	}
}

func find(holdings []model.Holding, symbol string) int {
	for i, h := range holdings {
		if h.Symbol == symbol {
			return i
		}
	}
	return -1
}

func buy(holdings []model.Holding, x model.Instrument, qty int64) []model.Holding {
	out := append([]model.Holding(nil), holdings...)

	i := find(out, x.Symbol)
	if i < 0 {
		return append(out, model.Holding{
			Symbol:       x.Symbol,
			Name:         x.Name,
			Quantity:     qty,
			AvgPrice:     x.Price,
			CurrentPrice: x.Price,
		})
	}

	h := out[i]
	newQty := h.Quantity + qty
	cost := h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity)).Add(x.Price.Mul(decimal.NewFromInt(qty)))
	h.AvgPrice = cost.Div(decimal.NewFromInt(newQty))
	h.Quantity = newQty
	out[i] = h
	return out
}

func sell(holdings []model.Holding, symbol string, qty int64) ([]model.Holding, error) {
	i := find(holdings, symbol)
	if i < 0 {
		return holdings, fmt.Errorf("%w: %s", ErrNoHolding, symbol)
	}
	h := holdings[i]
	if qty > h.Quantity {
		return holdings, fmt.Errorf("%w: have %d, want %d", ErrInsufficientShares, h.Quantity, qty)
	}

	out := make([]model.Holding, 0, len(holdings))
	out = append(out, holdings[:i]...)
	h.Quantity -= qty
	if h.Quantity > 0 {
		out = append(out, h)
	}
	return append(out, holdings[i+1:]...), nil
}
