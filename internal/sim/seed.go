package sim

import (
	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/model"
)

// HistoryWindow is the length of the seeded per-instrument price window.
const HistoryWindow = 20

type seedStock struct {
	symbol, name      string
	price, change     float64
	changePct         float64
	volume, marketCap string
	histBase, spread  float64
}

var seedStocks = []seedStock{
	{"RELIANCE.NS", "Reliance Industries", 2908.30, 48.95, 1.71, "8.2M", "₹19.68T", 2850, 100},
	{"TCS.NS", "Tata Consultancy", 3814.75, -10.55, -0.28, "2.1M", "₹13.80T", 3800, 50},
	{"HDFCBANK.NS", "HDFC Bank", 1699.95, 42.60, 2.57, "25.3M", "₹12.92T", 1650, 50},
	{"INFY.NS", "Infosys", 1530.50, 5.25, 0.34, "6.7M", "₹6.35T", 1520, 20},
	{"ICICIBANK.NS", "ICICI Bank", 1121.80, 18.25, 1.65, "18.9M", "₹7.89T", 1100, 30},
	{"HINDUNILVR.NS", "Hindustan Unilever", 2439.80, -15.10, -0.61, "1.5M", "₹5.73T", 2430, 20},
	{"BAJFINANCE.NS", "Bajaj Finance", 7120.00, -230.15, -3.13, "1.2M", "₹4.41T", 7100, 250},
	{"SBIN.NS", "State Bank of India", 836.25, 5.60, 0.67, "15.4M", "₹7.46T", 830, 10},
}

// DefaultInstruments returns the seeded NSE instrument set. The recent
// price window is filled with HistoryWindow random samples drawn from rng.
func DefaultInstruments(rng Source) []model.Instrument {
	out := make([]model.Instrument, 0, len(seedStocks))
	for _, s := range seedStocks {
		hist := make([]model.PricePoint, HistoryWindow)
		for i := range hist {
			p := s.histBase + rng.Float64()*s.spread
			hist[i] = model.PricePoint{Seq: i, Price: decimal.NewFromFloat(p).Round(2)}
		}
		out = append(out, model.Instrument{
			Symbol:        s.symbol,
			Name:          s.name,
			Price:         decimal.NewFromFloat(s.price),
			Change:        decimal.NewFromFloat(s.change),
			ChangePercent: decimal.NewFromFloat(s.changePct),
			Volume:        s.volume,
			MarketCap:     s.marketCap,
			History:       hist,
		})
	}
	return out
}

// DefaultIndices returns NIFTY 50 and SENSEX with six months of history.
func DefaultIndices() []model.Index {
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}
	series := func(values ...int64) []model.IndexPoint {
		pts := make([]model.IndexPoint, len(values))
		for i, v := range values {
			pts[i] = model.IndexPoint{Label: months[i], Value: decimal.NewFromInt(v)}
		}
		return pts
	}
	return []model.Index{
		{
			Name:          "NIFTY 50",
			Value:         decimal.RequireFromString("23537.85"),
			Change:        decimal.RequireFromString("66.70"),
			ChangePercent: decimal.RequireFromString("0.28"),
			History:       series(21500, 22000, 22400, 22600, 22800, 23500),
		},
		{
			Name:          "SENSEX",
			Value:         decimal.RequireFromString("77341.08"),
			Change:        decimal.RequireFromString("141.34"),
			ChangePercent: decimal.RequireFromString("0.18"),
			History:       series(71000, 72500, 73500, 74000, 75000, 77300),
		},
	}
}

// DefaultHoldings returns the starting portfolio.
func DefaultHoldings() []model.Holding {
	return []model.Holding{
		{Symbol: "RELIANCE.NS", Name: "Reliance Industries", Quantity: 50, AvgPrice: decimal.NewFromInt(2500), CurrentPrice: decimal.RequireFromString("2908.30")},
		{Symbol: "TCS.NS", Name: "Tata Consultancy", Quantity: 100, AvgPrice: decimal.NewFromInt(3500), CurrentPrice: decimal.RequireFromString("3814.75")},
		{Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Quantity: 200, AvgPrice: decimal.NewFromInt(1600), CurrentPrice: decimal.RequireFromString("1699.95")},
	}
}

// DefaultWatchlist returns the starting watchlist.
func DefaultWatchlist() []model.WatchlistEntry {
	entry := func(symbol, name, price, change, pct string) model.WatchlistEntry {
		return model.WatchlistEntry{
			Symbol:        symbol,
			Name:          name,
			Price:         decimal.RequireFromString(price),
			Change:        decimal.RequireFromString(change),
			ChangePercent: decimal.RequireFromString(pct),
		}
	}
	return []model.WatchlistEntry{
		entry("INFY.NS", "Infosys", "1530.50", "5.25", "0.34"),
		entry("ICICIBANK.NS", "ICICI Bank", "1121.80", "18.25", "1.65"),
		entry("BAJFINANCE.NS", "Bajaj Finance", "7120.00", "-230.15", "-3.13"),
		entry("SBIN.NS", "State Bank of India", "836.25", "5.60", "0.67"),
	}
}
