// Package session owns one running market simulation: the canonical
// instrument and index collections, the holding set, the watchlist and the
// views derived from them.
//
// A Session is the single writer for all of that state. Ticks, trades and
// imports are serialised by one mutex and each replaces the collections
// wholesale, so readers only ever see complete states.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/marketview"
	"github.com/bharatvest/sim-engine/internal/metrics"
	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/portfolio"
	"github.com/bharatvest/sim-engine/internal/sim"
)

// Snapshot is an immutable copy of the session state after a tick or
// mutation.
type Snapshot struct {
	Seq         uint64                 `json:"seq"`
	At          time.Time              `json:"at"`
	Instruments []model.Instrument     `json:"instruments"`
	Indices     []model.Index          `json:"indices"`
	Holdings    []model.Holding        `json:"holdings"`
	Watchlist   []model.WatchlistEntry `json:"watchlist"`
	Movers      model.Movers           `json:"movers"`
	Valuation   model.Valuation        `json:"valuation"`
}

// TradeResult confirms an applied trade.
type TradeResult struct {
	ID        string            `json:"trade_id"`
	Intent    model.TradeIntent `json:"intent"`
	Price     decimal.Decimal   `json:"price"`
	Holding   *model.Holding    `json:"holding,omitempty"` // nil once sold out
	Valuation model.Valuation   `json:"valuation"`
	At        time.Time         `json:"at"`
}

// Listener observes a session. Callbacks run on the goroutine that caused
// the event, after the session lock has been released.
type Listener interface {
	OnTick(Snapshot)
	OnTrade(TradeResult)
}

// Session is an explicitly owned simulation context.
type Session struct {
	cfg Config
	now func() time.Time

	mu          sync.Mutex
	rng         sim.Source
	seq         uint64
	instruments []model.Instrument
	indices     []model.Index
	holdings    []model.Holding
	watchlist   []model.WatchlistEntry
	movers      model.Movers

	lmu       sync.RWMutex
	listeners []Listener

	closed    chan struct{}
	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithSource replaces the random source used by ticks.
func WithSource(src sim.Source) Option {
	return func(s *Session) { s.rng = src }
}

// WithState replaces the seeded market and portfolio.
func WithState(instruments []model.Instrument, indices []model.Index, holdings []model.Holding, watchlist []model.WatchlistEntry) Option {
	return func(s *Session) {
		s.instruments = instruments
		s.indices = indices
		s.holdings = holdings
		s.watchlist = watchlist
	}
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session seeded with the default market. Nothing ticks
// until Run is called.
func New(cfg Config, opts ...Option) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Session{
		cfg:    cfg,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		closed: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.instruments == nil {
		s.instruments = sim.DefaultInstruments(s.rng)
		s.indices = sim.DefaultIndices()
		s.holdings = sim.DefaultHoldings()
		s.watchlist = sim.DefaultWatchlist()
	}
	s.recompute()
	return s
}

// Subscribe registers a listener for ticks and trades.
func (s *Session) Subscribe(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Run ticks every TickInterval until ctx is done or Close is called.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	slog.Info("simulation started",
		"interval", s.cfg.TickInterval.String(),
		"basis", s.cfg.Basis.String(),
		"instruments", len(s.instruments),
	)
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation stopped", "reason", ctx.Err())
			return
		case <-s.closed:
			slog.Info("simulation stopped", "reason", "closed")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Close stops Run. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Tick advances the simulation by one step and notifies listeners.
func (s *Session) Tick() Snapshot {
	s.mu.Lock()
	s.instruments = sim.TickInstruments(s.instruments, s.rng, s.cfg.Basis)
	s.indices = sim.TickIndices(s.indices, s.rng, s.cfg.Basis)
	s.holdings = marketview.RefreshHoldings(s.holdings, s.instruments)
	s.recompute()
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metrics.TicksTotal.Inc()
	metrics.PortfolioValue.Set(snap.Valuation.CurrentValue.InexactFloat64())
	for _, l := range s.subscribers() {
		l.OnTick(snap)
	}
	return snap
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Valuation values the holding set against live prices.
func (s *Session) Valuation() model.Valuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.Valuate(s.holdings, s.instruments)
}

// Trade applies intent to the holding set. The trade is fully applied
// before Trade returns; a rejected trade leaves the holdings untouched.
func (s *Session) Trade(intent model.TradeIntent) (TradeResult, error) {
	s.mu.Lock()
	holdings, err := portfolio.Apply(s.holdings, s.instruments, intent)
	if err != nil {
		s.mu.Unlock()
		metrics.TradeRejections.WithLabelValues(rejectReason(err)).Inc()
		return TradeResult{}, err
	}
	price := s.tradePriceLocked(intent.Symbol)
	s.holdings = holdings
	s.recompute()

	res := TradeResult{
		ID:        uuid.New().String(),
		Intent:    intent,
		Price:     price,
		Valuation: portfolio.Valuate(s.holdings, s.instruments),
		At:        s.now().UTC(),
	}
	for _, h := range s.holdings {
		if h.Symbol == intent.Symbol {
			res.Holding = &h
			break
		}
	}
	s.mu.Unlock()

	metrics.TradesTotal.WithLabelValues(string(intent.Direction)).Inc()
	metrics.TradeVolume.WithLabelValues(intent.Symbol, string(intent.Direction)).Add(float64(intent.Quantity))
	metrics.PortfolioValue.Set(res.Valuation.CurrentValue.InexactFloat64())
	slog.Info("trade simulated",
		"trade_id", res.ID,
		"type", string(intent.Direction),
		"symbol", intent.Symbol,
		"qty", intent.Quantity,
		"price", price.String(),
	)
	for _, l := range s.subscribers() {
		l.OnTrade(res)
	}
	return res, nil
}

// ImportCSV replaces the holding set with the contents of r. A malformed
// file leaves the holdings untouched.
func (s *Session) ImportCSV(r io.Reader) ([]model.Holding, error) {
	holdings, err := portfolio.ImportCSV(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.holdings = holdings
	s.recompute()
	out := append([]model.Holding(nil), s.holdings...)
	s.mu.Unlock()

	slog.Info("portfolio imported", "holdings", len(out))
	return out, nil
}

// ExportCSV writes the holding set to w.
func (s *Session) ExportCSV(w io.Writer) error {
	s.mu.Lock()
	holdings := append([]model.Holding(nil), s.holdings...)
	s.mu.Unlock()
	return portfolio.ExportCSV(w, holdings)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, portfolio.ErrNoHolding):
		return "no_holding"
	case errors.Is(err, portfolio.ErrUnknownInstrument):
		return "unknown_instrument"
	default:
		return "invalid"
	}
}

func (s *Session) subscribers() []Listener {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	return append([]Listener(nil), s.listeners...)
}

// recompute refreshes the derived views. Caller holds s.mu.
func (s *Session) recompute() {
	s.movers = marketview.Rank(s.instruments)
	s.watchlist = marketview.SyncWatchlist(s.watchlist, s.instruments)
}

func (s *Session) tradePriceLocked(symbol string) decimal.Decimal {
	if x, ok := marketview.BySymbol(s.instruments)[symbol]; ok {
		return x.Price
	}
	for _, h := range s.holdings {
		if h.Symbol == symbol {
			return h.CurrentPrice
		}
	}
	return decimal.Zero
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Seq:         s.seq,
		At:          s.now().UTC(),
		Instruments: make([]model.Instrument, len(s.instruments)),
		Indices:     make([]model.Index, len(s.indices)),
		Holdings:    append([]model.Holding(nil), s.holdings...),
		Watchlist:   append([]model.WatchlistEntry(nil), s.watchlist...),
		Movers: model.Movers{
			Gainers: cloneInstruments(s.movers.Gainers),
			Losers:  cloneInstruments(s.movers.Losers),
		},
		Valuation: portfolio.Valuate(s.holdings, s.instruments),
	}
	for i, x := range s.instruments {
		snap.Instruments[i] = x.Clone()
	}
	for i, x := range s.indices {
		snap.Indices[i] = x.Clone()
	}
	return snap
}

func cloneInstruments(in []model.Instrument) []model.Instrument {
	out := make([]model.Instrument, len(in))
	for i, x := range in {
		out[i] = x.Clone()
	}
	return out
}
