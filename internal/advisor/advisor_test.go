package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/bharatvest/sim-engine/internal/expense"
)

// fakeModel returns a canned response and records prompts.
type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	schemas []*genai.Schema
}

func (f *fakeModel) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.reply, f.err
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newAdvisor(t *testing.T, m Model, cached bool) *Advisor {
	t.Helper()
	cfg := DefaultConfig()
	if !cached {
		cfg.CacheTTL = 0
	}
	a, err := New(m, cfg)
	if err != nil {
		t.Fatalf("new advisor: %v", err)
	}
	return a
}

func TestAnalyzeStock(t *testing.T) {
	m := &fakeModel{reply: `{"analysis":"Strong refining margins","recommendation":"Hold"}`}
	a := newAdvisor(t, m, false)

	out, err := a.AnalyzeStock(context.Background(), StockAnalysisInput{StockSymbol: "RELIANCE.NS", Query: "Reliance ka performance kaisa hai?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Recommendation != "Hold" {
		t.Errorf("recommendation = %q", out.Recommendation)
	}
	if !strings.Contains(m.prompts[0], "Stock Symbol: RELIANCE.NS") {
		t.Errorf("prompt missing symbol: %s", m.prompts[0])
	}
	if got := m.schemas[0].Required; len(got) != 2 {
		t.Errorf("schema required = %v", got)
	}
}

func TestInvalidInputSkipsModel(t *testing.T) {
	m := &fakeModel{reply: `{}`}
	a := newAdvisor(t, m, false)

	_, err := a.MarketSentiment(context.Background(), MarketSentimentInput{Query: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = a.AnalyzeExpenses(context.Background(), ExpenseAnalysisInput{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for no expenses, got %v", err)
	}
	if m.calls() != 0 {
		t.Errorf("model called %d times", m.calls())
	}
}

func TestEmptyAndMalformedResponses(t *testing.T) {
	tests := []struct {
		reply string
		want  error
	}{
		{"", ErrEmptyResponse},
		{"   ", ErrEmptyResponse},
		{`{"sentiment":"","reasoning":"x"}`, ErrEmptyResponse},
		{`not json`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		a := newAdvisor(t, &fakeModel{reply: tt.reply}, false)
		_, err := a.MarketSentiment(context.Background(), MarketSentimentInput{Query: "Nifty?"})
		if !errors.Is(err, tt.want) {
			t.Errorf("reply %q: expected %v, got %v", tt.reply, tt.want, err)
		}
	}
}

func TestModelErrorIsWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := newAdvisor(t, &fakeModel{err: boom}, false)
	_, err := a.MarketSentiment(context.Background(), MarketSentimentInput{Query: "Nifty?"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped model error, got %v", err)
	}
}

func TestOptionStrategyOptionalFields(t *testing.T) {
	m := &fakeModel{reply: `{"strategyName":"Covered Call","description":"d","rationale":"r","risk":"Low","potentialReturn":"p","marketConditions":"neutral","exampleTrade":"Sell TCS.NS call"}`}
	a := newAdvisor(t, m, false)

	out, err := a.OptionStrategy(context.Background(), OptionStrategyInput{RiskProfile: "conservative", InvestmentGoals: "income"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.StrategyName != "Covered Call" {
		t.Errorf("strategy = %q", out.StrategyName)
	}
	if strings.Contains(m.prompts[0], "Market Outlook") || strings.Contains(m.prompts[0], "Stock:") {
		t.Errorf("omitted optional fields should not be rendered: %s", m.prompts[0])
	}
}

func TestExpenseAnalysisPromptIncludesExpenses(t *testing.T) {
	m := &fakeModel{reply: `{"summary":"Mostly food","suggestions":"Cook at home"}`}
	a := newAdvisor(t, m, false)

	_, err := a.AnalyzeExpenses(context.Background(), ExpenseAnalysisInput{Expenses: []expense.Expense{
		{ID: "e1", Name: "Biryani", Amount: decimal.NewFromInt(350), Category: expense.Food, Date: "2025-06-18"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(m.prompts[0], `"name":"Biryani"`) {
		t.Errorf("prompt missing expense JSON: %s", m.prompts[0])
	}
}

func TestCategorizeExpense(t *testing.T) {
	a := newAdvisor(t, &fakeModel{reply: `{"category":" Transport "}`}, false)
	cat, err := a.CategorizeExpense(context.Background(), "Uber to office")
	if err != nil || cat != expense.Transport {
		t.Errorf("CategorizeExpense = %q, %v", cat, err)
	}

	a = newAdvisor(t, &fakeModel{reply: `{"category":"groceries"}`}, false)
	if _, err := a.CategorizeExpense(context.Background(), "Milk"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for off-list category, got %v", err)
	}
}

func TestCategoryPromptListsCategories(t *testing.T) {
	m := &fakeModel{reply: `{"category":"food"}`}
	a := newAdvisor(t, m, false)
	a.CategorizeExpense(context.Background(), "Chai")
	for _, c := range expense.Categories {
		if !strings.Contains(m.prompts[0], "- "+string(c)) {
			t.Errorf("prompt missing category %s", c)
		}
	}
}

func TestGenerate_DispatchesByKind(t *testing.T) {
	a := newAdvisor(t, &fakeModel{reply: `{"sentiment":"positive","reasoning":"FII inflows"}`}, false)
	out, err := a.Generate(context.Background(), KindMarketSentiment, json.RawMessage(`{"query":"Bank Nifty outlook?"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ms, ok := out.(*MarketSentiment)
	if !ok || ms.Sentiment != "positive" {
		t.Errorf("output = %#v", out)
	}
	if out.Kind() != KindMarketSentiment {
		t.Errorf("kind = %s", out.Kind())
	}
}

func TestGenerate_Errors(t *testing.T) {
	a := newAdvisor(t, &fakeModel{reply: `{}`}, false)
	if _, err := a.Generate(context.Background(), "horoscope", json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := a.Generate(context.Background(), KindMarketSentiment, json.RawMessage(`{"q":1}`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown field, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("stock-analysis"); err != nil || k != KindStockAnalysis {
		t.Errorf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("nope"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestCache_IdenticalRequestsHitOnce(t *testing.T) {
	m := &fakeModel{reply: `{"sentiment":"neutral","reasoning":"range bound"}`}
	a := newAdvisor(t, m, true)
	in := MarketSentimentInput{Query: "Sensex today?"}

	if _, err := a.MarketSentiment(context.Background(), in); err != nil {
		t.Fatalf("first call: %v", err)
	}
	a.cache.Wait()
	out, err := a.MarketSentiment(context.Background(), in)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if out.Sentiment != "neutral" {
		t.Errorf("cached sentiment = %q", out.Sentiment)
	}
	if m.calls() != 1 {
		t.Errorf("model called %d times, want 1", m.calls())
	}
}
