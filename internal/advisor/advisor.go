// Package advisor produces structured investment and budgeting advice from
// a generative model. Every request kind has a fixed input record, a prompt
// template and a JSON response schema; responses are decoded and checked
// before they are returned.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"google.golang.org/genai"

	"github.com/bharatvest/sim-engine/internal/expense"
	"github.com/bharatvest/sim-engine/internal/metrics"
)

var (
	ErrUnknownKind       = errors.New("advisor: unknown request kind")
	ErrInvalidInput      = errors.New("advisor: invalid input")
	ErrEmptyResponse     = errors.New("advisor: empty response from model")
	ErrMalformedResponse = errors.New("advisor: malformed response from model")
)

// Kind names a request type.
type Kind string

const (
	KindStockAnalysis   Kind = "stock_analysis"
	KindMarketSentiment Kind = "market_sentiment"
	KindOptionStrategy  Kind = "option_strategy"
	KindExpenseAnalysis Kind = "expense_analysis"
	KindExpenseCategory Kind = "expense_category"
)

// ParseKind accepts a kind name with either underscores or hyphens.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(s), "-", "_"))
	if _, ok := flows[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Model generates a JSON document that conforms to schema.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Output is a decoded model response.
type Output interface {
	Kind() Kind
	validate() error
}

type input interface {
	validate() error
}

// Config holds Advisor tuning.
type Config struct {
	// CacheTTL is how long identical requests are answered from memory.
	// Zero disables caching.
	CacheTTL time.Duration
	// CacheMaxCost bounds the cache in bytes of response text.
	CacheMaxCost int64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:     5 * time.Minute,
		CacheMaxCost: 1 << 24,
	}
}

// Advisor renders prompts, calls the model and validates its answers.
type Advisor struct {
	model Model
	cache *ristretto.Cache
	ttl   time.Duration
}

// New creates an Advisor around model.
func New(model Model, cfg Config) (*Advisor, error) {
	a := &Advisor{model: model, ttl: cfg.CacheTTL}
	if cfg.CacheTTL > 0 {
		c, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     cfg.CacheMaxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("advisor cache: %w", err)
		}
		a.cache = c
	}
	return a, nil
}

// AnalyzeStock analyses a stock and recommends an action.
func (a *Advisor) AnalyzeStock(ctx context.Context, in StockAnalysisInput) (StockAnalysis, error) {
	var out StockAnalysis
	return out, a.run(ctx, KindStockAnalysis, in, &out)
}

// MarketSentiment classifies the sentiment behind a market question.
func (a *Advisor) MarketSentiment(ctx context.Context, in MarketSentimentInput) (MarketSentiment, error) {
	var out MarketSentiment
	return out, a.run(ctx, KindMarketSentiment, in, &out)
}

// OptionStrategy proposes an options strategy for a risk profile.
func (a *Advisor) OptionStrategy(ctx context.Context, in OptionStrategyInput) (OptionStrategy, error) {
	var out OptionStrategy
	return out, a.run(ctx, KindOptionStrategy, in, &out)
}

// AnalyzeExpenses summarises spending and suggests savings.
func (a *Advisor) AnalyzeExpenses(ctx context.Context, in ExpenseAnalysisInput) (ExpenseAnalysis, error) {
	var out ExpenseAnalysis
	return out, a.run(ctx, KindExpenseAnalysis, in, &out)
}

// CategorizeExpense suggests one of the fixed expense categories for name.
func (a *Advisor) CategorizeExpense(ctx context.Context, name string) (expense.Category, error) {
	var out ExpenseCategory
	if err := a.run(ctx, KindExpenseCategory, ExpenseCategoryInput{ExpenseName: name}, &out); err != nil {
		return "", err
	}
	return out.Category, nil
}

// Generate decodes raw as the input record of kind and runs it.
func (a *Advisor) Generate(ctx context.Context, kind Kind, raw json.RawMessage) (Output, error) {
	f, ok := flows[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	in := f.newInput()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out := f.newOutput()
	if err := a.run(ctx, kind, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Advisor) run(ctx context.Context, kind Kind, in input, out Output) error {
	f, ok := flows[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err := in.validate(); err != nil {
		return err
	}

	var prompt strings.Builder
	if err := f.tmpl.Execute(&prompt, in); err != nil {
		return fmt.Errorf("advisor: render %s prompt: %w", kind, err)
	}
	key := string(kind) + "\x00" + prompt.String()

	if a.cache != nil {
		if v, ok := a.cache.Get(key); ok {
			if err := decode(v.(string), out); err == nil {
				metrics.AdvisorRequests.WithLabelValues(string(kind), "cached").Inc()
				return nil
			}
		}
	}

	start := time.Now()
	text, err := a.model.GenerateJSON(ctx, prompt.String(), f.schema)
	metrics.AdvisorLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err == nil {
		err = decode(text, out)
	} else if !errors.Is(err, ErrEmptyResponse) {
		err = fmt.Errorf("advisor: %s: %w", kind, err)
	}
	if err != nil {
		metrics.AdvisorRequests.WithLabelValues(string(kind), "error").Inc()
		slog.Warn("advisor request failed", "kind", string(kind), "err", err)
		return err
	}
	metrics.AdvisorRequests.WithLabelValues(string(kind), "ok").Inc()

	if a.cache != nil {
		a.cache.SetWithTTL(key, text, int64(len(text)), a.ttl)
	}
	return nil
}

func decode(text string, out Output) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.validate()
}
