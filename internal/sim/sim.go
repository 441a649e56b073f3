// Package sim implements the price simulator: a bounded random walk applied
// to every instrument and index once per tick.
//
// The walk is a pure transform. Tick functions take the current collections
// and return replacements; callers own the swap.
package sim

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/model"
)

var (
	// ErrUnknownBasis is returned by ParseBasis for unrecognised names.
	ErrUnknownBasis = errors.New("sim: unknown change basis")

	// PriceFloor is the lowest price an instrument can reach.
	PriceFloor = decimal.NewFromInt(10)

	// PriceScale is the number of decimal places kept on prices and values.
	PriceScale int32 = 8

	// PercentScale is the number of decimal places kept on change percents.
	PercentScale int32 = 8

	// InstrumentDrift is the half-width of the per-tick instrument move
	// (±2.5%); InstrumentCenter centres the uniform draw.
	InstrumentDrift  = 0.05
	InstrumentCenter = 0.5

	// IndexDrift and IndexCenter give indices a tighter, slightly upward
	// biased walk: (U - 0.45) * 0.01.
	IndexDrift  = 0.01
	IndexCenter = 0.45

	hundred = decimal.NewFromInt(100)
)

// IndexLabel labels every index sample appended by a tick.
const IndexLabel = "Now"

// Source supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Basis selects the price that change and change percent are measured from.
type Basis int

const (
	// BasisReference measures from price - change as it stood before the
	// tick. Because every tick preserves price - change, the base stays at
	// the seeded reference price for the life of the simulation.
	BasisReference Basis = iota

	// BasisLastTick measures from the price immediately before the tick.
	BasisLastTick
)

func (b Basis) String() string {
	switch b {
	case BasisReference:
		return "reference"
	case BasisLastTick:
		return "tick"
	default:
		return fmt.Sprintf("basis(%d)", int(b))
	}
}

// ParseBasis maps a configuration value to a Basis.
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "", "reference":
		return BasisReference, nil
	case "tick":
		return BasisLastTick, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBasis, s)
	}
}

// Base returns the price the next change will be measured from.
func (b Basis) Base(price, change decimal.Decimal) decimal.Decimal {
	if b == BasisLastTick {
		return price
	}
	return price.Sub(change)
}

// ChangeFrom computes change and change percent of price against base.
// A zero base yields a zero percent.
func ChangeFrom(price, base decimal.Decimal) (change, percent decimal.Decimal) {
	change = price.Sub(base)
	if base.IsZero() {
		return change, decimal.Zero
	}
	return change, change.Div(base).Mul(hundred).Round(PercentScale)
}

// draw returns (U - center) * width as a decimal.
func draw(rng Source, center, width float64) decimal.Decimal {
	return decimal.NewFromFloat((rng.Float64() - center) * width)
}

// TickInstruments advances every instrument by one step of the random walk.
// Prices never fall below PriceFloor. The history window keeps its length:
// the oldest sample is evicted and the new price appended.
func TickInstruments(instruments []model.Instrument, rng Source, basis Basis) []model.Instrument {
	out := make([]model.Instrument, len(instruments))
	for i, in := range instruments {
		pct := draw(rng, InstrumentCenter, InstrumentDrift)
		price := in.Price.Add(in.Price.Mul(pct)).Round(PriceScale)
		if price.LessThan(PriceFloor) {
			price = PriceFloor
		}

		base := basis.Base(in.Price, in.Change)
		next := in.Clone()
		next.Price = price
		next.Change, next.ChangePercent = ChangeFrom(price, base)
		next.History = slidePrices(in.History, price)
		out[i] = next
	}
	return out
}

// TickIndices advances every index by one step. Indices have no floor.
func TickIndices(indices []model.Index, rng Source, basis Basis) []model.Index {
	out := make([]model.Index, len(indices))
	for i, x := range indices {
		pct := draw(rng, IndexCenter, IndexDrift)
		value := x.Value.Add(x.Value.Mul(pct)).Round(PriceScale)

		base := basis.Base(x.Value, x.Change)
		next := x.Clone()
		next.Value = value
		next.Change, next.ChangePercent = ChangeFrom(value, base)
		next.History = slideValues(x.History, value)
		out[i] = next
	}
	return out
}

func slidePrices(window []model.PricePoint, price decimal.Decimal) []model.PricePoint {
	if len(window) == 0 {
		return nil
	}
	seq := window[len(window)-1].Seq + 1
	out := make([]model.PricePoint, 0, len(window))
	out = append(out, window[1:]...)
	return append(out, model.PricePoint{Seq: seq, Price: price})
}

func slideValues(window []model.IndexPoint, value decimal.Decimal) []model.IndexPoint {
	if len(window) == 0 {
		return nil
	}
	out := make([]model.IndexPoint, 0, len(window))
	out = append(out, window[1:]...)
	return append(out, model.IndexPoint{Label: IndexLabel, Value: value})
}
