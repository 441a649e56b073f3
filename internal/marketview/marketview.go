// Package marketview derives the read-side views of the market: top movers,
// the watchlist and holding prices. Every function is a pure recompute from
// the current instrument set.
package marketview

import (
	"slices"

	"github.com/bharatvest/sim-engine/internal/model"
)

// TopN is the number of gainers and losers reported.
const TopN = 5

// Rank returns the TopN instruments by change percent, descending for
// gainers and ascending for losers. Ties keep input order.
func Rank(instruments []model.Instrument) model.Movers {
	gainers := slices.Clone(instruments)
	slices.SortStableFunc(gainers, func(a, b model.Instrument) int {
		return b.ChangePercent.Cmp(a.ChangePercent)
	})

	losers := slices.Clone(instruments)
	slices.SortStableFunc(losers, func(a, b model.Instrument) int {
		return a.ChangePercent.Cmp(b.ChangePercent)
	})

	return model.Movers{
		Gainers: clip(gainers),
		Losers:  clip(losers),
	}
}

func clip(in []model.Instrument) []model.Instrument {
	if len(in) > TopN {
		in = in[:TopN]
	}
	out := make([]model.Instrument, len(in))
	for i, x := range in {
		out[i] = x.Clone()
	}
	return out
}

// BySymbol indexes instruments by symbol. When a symbol repeats, the first
// occurrence wins.
func BySymbol(instruments []model.Instrument) map[string]model.Instrument {
	m := make(map[string]model.Instrument, len(instruments))
	for _, x := range instruments {
		if _, ok := m[x.Symbol]; !ok {
			m[x.Symbol] = x
		}
	}
	return m
}

// SyncWatchlist copies live price fields onto each watchlist entry. Entries
// whose symbol is not live keep their last-known values.
func SyncWatchlist(watchlist []model.WatchlistEntry, instruments []model.Instrument) []model.WatchlistEntry {
	live := BySymbol(instruments)
	out := make([]model.WatchlistEntry, len(watchlist))
	for i, w := range watchlist {
		if x, ok := live[w.Symbol]; ok {
			w.Price = x.Price
			w.Change = x.Change
			w.ChangePercent = x.ChangePercent
		}
		out[i] = w
	}
	return out
}

// RefreshHoldings copies live prices onto each holding's CurrentPrice.
// Holdings of untracked symbols keep their stored price.
func RefreshHoldings(holdings []model.Holding, instruments []model.Instrument) []model.Holding {
	live := BySymbol(instruments)
	out := make([]model.Holding, len(holdings))
	for i, h := range holdings {
		if x, ok := live[h.Symbol]; ok {
			h.CurrentPrice = x.Price
		}
		out[i] = h
	}
	return out
}
