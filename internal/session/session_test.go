package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/portfolio"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// constSource always draws the same value.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

type recorder struct {
	mu     sync.Mutex
	ticks  []Snapshot
	trades []TradeResult
}

func (r *recorder) OnTick(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, s)
}

func (r *recorder) OnTrade(t TradeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, t)
}

func newTestSession(t *testing.T, draw float64) *Session {
	t.Helper()
	instruments := []model.Instrument{
		{Symbol: "AAA.NS", Name: "AAA", Price: d(100), Change: d(0), History: []model.PricePoint{{Seq: 0, Price: d(100)}}},
		{Symbol: "BBB.NS", Name: "BBB", Price: d(200), Change: d(0), History: []model.PricePoint{{Seq: 0, Price: d(200)}}},
	}
	indices := []model.Index{{Name: "NIFTY 50", Value: d(1000)}}
	holdings := []model.Holding{{Symbol: "AAA.NS", Name: "AAA", Quantity: 10, AvgPrice: d(100), CurrentPrice: d(100)}}
	watchlist := []model.WatchlistEntry{{Symbol: "BBB.NS", Name: "BBB"}}

	return New(DefaultConfig(),
		WithSource(constSource(draw)),
		WithState(instruments, indices, holdings, watchlist),
		WithNow(func() time.Time { return time.Date(2025, 6, 18, 4, 0, 0, 0, time.UTC) }),
	)
}

func TestNew_SeedsDefaultMarket(t *testing.T) {
	s := New(Config{Seed: 42})
	snap := s.Snapshot()
	if len(snap.Instruments) == 0 || len(snap.Indices) == 0 {
		t.Fatal("default market should be seeded")
	}
	if len(snap.Movers.Gainers) == 0 {
		t.Error("movers should be computed at construction")
	}
}

func TestTick_RefreshesHoldingsAndWatchlist(t *testing.T) {
	s := newTestSession(t, 1.0) // +2.5% per tick
	rec := &recorder{}
	s.Subscribe(rec)

	snap := s.Tick()

	if snap.Seq != 1 {
		t.Errorf("seq = %d, want 1", snap.Seq)
	}
	if !snap.Instruments[0].Price.Equal(d(102.5)) {
		t.Fatalf("AAA price = %s, want 102.5", snap.Instruments[0].Price)
	}
	if !snap.Holdings[0].CurrentPrice.Equal(d(102.5)) {
		t.Errorf("holding current price = %s, want 102.5", snap.Holdings[0].CurrentPrice)
	}
	if !snap.Watchlist[0].Price.Equal(d(205)) {
		t.Errorf("watchlist price = %s, want 205", snap.Watchlist[0].Price)
	}
	if len(rec.ticks) != 1 || rec.ticks[0].Seq != 1 {
		t.Errorf("listener saw %d ticks", len(rec.ticks))
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := newTestSession(t, 0.5)
	snap := s.Snapshot()
	snap.Instruments[0].History[0].Price = d(1)
	snap.Holdings[0].Quantity = 999

	again := s.Snapshot()
	if again.Instruments[0].History[0].Price.Equal(d(1)) {
		t.Error("snapshot history aliases session state")
	}
	if again.Holdings[0].Quantity != 10 {
		t.Error("snapshot holdings alias session state")
	}
}

func TestTrade_BuyAveragesAndNotifies(t *testing.T) {
	s := newTestSession(t, 0.5)
	rec := &recorder{}
	s.Subscribe(rec)

	res, err := s.Trade(model.TradeIntent{Direction: model.Buy, Symbol: "BBB.NS", Quantity: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == "" {
		t.Error("trade id should be set")
	}
	if !res.Price.Equal(d(200)) {
		t.Errorf("price = %s, want 200", res.Price)
	}
	if res.Holding == nil || res.Holding.Quantity != 5 {
		t.Fatalf("holding = %+v", res.Holding)
	}
	// 10 AAA @ 100 + 5 BBB @ 200.
	if !res.Valuation.TotalInvestment.Equal(d(2000)) {
		t.Errorf("investment = %s, want 2000", res.Valuation.TotalInvestment)
	}
	if len(rec.trades) != 1 {
		t.Errorf("listener saw %d trades, want 1", len(rec.trades))
	}
}

func TestTrade_SellToZeroClearsHolding(t *testing.T) {
	s := newTestSession(t, 0.5)
	res, err := s.Trade(model.TradeIntent{Direction: model.Sell, Symbol: "AAA.NS", Quantity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Holding != nil {
		t.Errorf("sold-out holding should be nil, got %+v", res.Holding)
	}
	if n := len(s.Snapshot().Holdings); n != 0 {
		t.Errorf("holdings = %d, want 0", n)
	}
}

func TestTrade_RejectedLeavesStateUntouched(t *testing.T) {
	s := newTestSession(t, 0.5)
	rec := &recorder{}
	s.Subscribe(rec)

	_, err := s.Trade(model.TradeIntent{Direction: model.Sell, Symbol: "AAA.NS", Quantity: 15})
	if !errors.Is(err, portfolio.ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
	if q := s.Snapshot().Holdings[0].Quantity; q != 10 {
		t.Errorf("quantity = %d, want 10", q)
	}
	if len(rec.trades) != 0 {
		t.Error("rejected trade should not notify")
	}
}

func TestImportExportCSV(t *testing.T) {
	s := newTestSession(t, 0.5)
	in := portfolio.CSVHeader + "\nBBB.NS,BBB,3,150,200\n"

	got, err := s.ImportCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "BBB.NS" {
		t.Fatalf("imported = %+v", got)
	}

	var sb strings.Builder
	if err := s.ExportCSV(&sb); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(sb.String(), "BBB.NS,BBB,3,150,200") {
		t.Errorf("export = %q", sb.String())
	}
}

func TestImportCSV_MalformedKeepsHoldings(t *testing.T) {
	s := newTestSession(t, 0.5)
	_, err := s.ImportCSV(strings.NewReader(portfolio.CSVHeader + "\nBBB.NS,BBB,abc,150,200"))
	if !errors.Is(err, portfolio.ErrMalformedCSV) {
		t.Fatalf("expected ErrMalformedCSV, got %v", err)
	}
	if h := s.Snapshot().Holdings; len(h) != 1 || h[0].Symbol != "AAA.NS" {
		t.Errorf("holdings changed: %+v", h)
	}
}

func TestValuation_PLIdentity(t *testing.T) {
	s := newTestSession(t, 1.0)
	s.Tick()
	v := s.Valuation()
	if !v.OverallPL.Equal(v.CurrentValue.Sub(v.TotalInvestment)) {
		t.Errorf("P&L %s != %s - %s", v.OverallPL, v.CurrentValue, v.TotalInvestment)
	}
}

func TestRun_StopsOnClose(t *testing.T) {
	s := newTestSession(t, 0.5)
	s.cfg.TickInterval = time.Millisecond
	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	s.Close()
	s.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	if s.Snapshot().Seq == 0 {
		t.Error("expected at least one tick")
	}
}

func TestConcurrentTradesAndTicks(t *testing.T) {
	s := newTestSession(t, 0.5)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Tick()
		}()
		go func() {
			defer wg.Done()
			s.Trade(model.TradeIntent{Direction: model.Buy, Symbol: "AAA.NS", Quantity: 1})
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Seq != 20 {
		t.Errorf("seq = %d, want 20", snap.Seq)
	}
	if q := snap.Holdings[0].Quantity; q != 30 {
		t.Errorf("quantity = %d, want 30", q)
	}
}
