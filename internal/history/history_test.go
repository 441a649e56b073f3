package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/store"
)

func TestRecordAndList_DecodesByKind(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	l := New(st)
	at := time.Date(2025, 6, 18, 4, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return at }

	if _, err := l.Record(ctx, "u1", "Analyzed TCS.NS", &advisor.StockAnalysis{Analysis: "a", Recommendation: "Buy"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := l.Record(ctx, "u1", "Sentiment", advisor.MarketSentiment{Sentiment: "positive", Reasoning: "r"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := l.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	ms, ok := entries[0].Result.(*advisor.MarketSentiment)
	if !ok || ms.Sentiment != "positive" {
		t.Errorf("newest entry result = %#v", entries[0].Result)
	}
	sa, ok := entries[1].Result.(*advisor.StockAnalysis)
	if !ok || sa.Recommendation != "Buy" {
		t.Errorf("oldest entry result = %#v", entries[1].Result)
	}
	if entries[1].Kind != advisor.KindStockAnalysis || !entries[1].Timestamp.Equal(at) {
		t.Errorf("entry = %+v", entries[1])
	}
}

func TestRecord_RejectsCategory(t *testing.T) {
	l := New(store.NewMemoryStore())
	_, err := l.Record(context.Background(), "u1", "x", &advisor.ExpenseCategory{Category: "food"})
	if !errors.Is(err, ErrNotRecordable) {
		t.Errorf("expected ErrNotRecordable, got %v", err)
	}
}

func TestList_UnknownKindHasNilResult(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.Append(ctx, "users/u1/workHistory", map[string]any{
		"timestamp":    "2025-06-18T04:00:00Z",
		"activityType": "tax_planning",
		"details":      "legacy",
		"result":       map[string]any{"x": 1},
	})

	entries, err := New(st).List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Result != nil || entries[0].Kind != "tax_planning" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(advisor.KindStockAnalysis, "RELIANCE.NS"); got != "Analyzed RELIANCE.NS" {
		t.Errorf("Describe = %q", got)
	}
}
