// Package model defines the core domain types shared across the simulation
// engine. All prices, amounts and percentages use shopspring/decimal, never
// float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one sample of an instrument's recent price window.
type PricePoint struct {
	Seq   int             `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// Instrument is a tradable symbol with live simulated state.
type Instrument struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        string          `json:"volume"`     // display value, e.g. "8.2M"
	MarketCap     string          `json:"market_cap"` // display value, e.g. "₹19.68T"
	History       []PricePoint    `json:"last_day"`
}

// Clone returns a copy that shares no slices with i.
func (i Instrument) Clone() Instrument {
	i.History = append([]PricePoint(nil), i.History...)
	return i
}

// IndexPoint is one sample of an index's value series.
type IndexPoint struct {
	Label string          `json:"month"`
	Value decimal.Decimal `json:"value"`
}

// Index is a market index such as NIFTY 50.
type Index struct {
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	History       []IndexPoint    `json:"history"`
}

// Clone returns a copy that shares no slices with x.
func (x Index) Clone() Index {
	x.History = append([]IndexPoint(nil), x.History...)
	return x
}

// Holding is one portfolio position. Quantity is at least 1 while held;
// a position that reaches zero is removed from the holding set.
type Holding struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Quantity     int64           `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// WatchlistEntry mirrors the price fields of a live instrument.
type WatchlistEntry struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Direction is the side of a trade intent.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Buy || d == Sell
}

// TradeIntent is a transient buy or sell request. It is consumed by the
// trade simulator and never persisted.
type TradeIntent struct {
	Direction Direction `json:"type"`
	Symbol    string    `json:"symbol"`
	Quantity  int64     `json:"quantity"`
}

// Valuation is the cost and mark-to-market value of a holding set.
type Valuation struct {
	TotalInvestment decimal.Decimal `json:"total_investment"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	OverallPL       decimal.Decimal `json:"overall_pl"`
}

// Movers holds the top gainers and losers of one recompute.
type Movers struct {
	Gainers []Instrument `json:"top_gainers"`
	Losers  []Instrument `json:"top_losers"`
}

// MarketStatus is the result of one market-hours check.
type MarketStatus struct {
	Open      bool      `json:"open"`
	CheckedAt time.Time `json:"checked_at"`
}
