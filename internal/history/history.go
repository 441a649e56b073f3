// Package history keeps a per-user log of advisor results.
//
// An Entry is a tagged union: Kind selects which advisor output Result
// holds. Entries are stored under users/{uid}/workHistory.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/store"
)

var ErrNotRecordable = errors.New("history: kind is not recorded")

// Result is the payload of an entry. Every advisor output type except
// expense categorisation satisfies it.
type Result interface {
	Kind() advisor.Kind
}

// recordable maps each recorded kind to a constructor for its payload.
var recordable = map[advisor.Kind]func() Result{
	advisor.KindStockAnalysis:   func() Result { return &advisor.StockAnalysis{} },
	advisor.KindMarketSentiment: func() Result { return &advisor.MarketSentiment{} },
	advisor.KindOptionStrategy:  func() Result { return &advisor.OptionStrategy{} },
	advisor.KindExpenseAnalysis: func() Result { return &advisor.ExpenseAnalysis{} },
}

// Recordable reports whether entries of kind are kept.
func Recordable(kind advisor.Kind) bool {
	_, ok := recordable[kind]
	return ok
}

// Entry is one logged advisor interaction. Result is nil when the stored
// kind is not one this version understands.
type Entry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      advisor.Kind `json:"activityType"`
	Details   string       `json:"details"`
	Result    Result       `json:"result"`
}

// stored is the document layout of an Entry.
type stored struct {
	Timestamp    time.Time       `json:"timestamp"`
	ActivityType advisor.Kind    `json:"activityType"`
	Details      string          `json:"details"`
	Result       json.RawMessage `json:"result"`
}

// Log records and lists work history.
type Log struct {
	store store.Store
	now   func() time.Time
}

// New creates a Log backed by st.
func New(st store.Store) *Log {
	return &Log{store: st, now: time.Now}
}

func collection(uid string) string {
	return store.Join("users", uid, "workHistory")
}

// Record appends an entry for result. details is a short human description
// of the request, e.g. "Analyzed RELIANCE.NS".
func (l *Log) Record(ctx context.Context, uid, details string, result Result) (string, error) {
	kind := result.Kind()
	if !Recordable(kind) {
		return "", fmt.Errorf("%w: %s", ErrNotRecordable, kind)
	}
	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", kind, err)
	}
	fields, err := store.Encode(stored{
		Timestamp:    l.now().UTC(),
		ActivityType: kind,
		Details:      details,
		Result:       body,
	})
	if err != nil {
		return "", err
	}
	return l.store.Append(ctx, collection(uid), fields)
}

// RecordAsync records in the background. Failures are logged and dropped.
func (l *Log) RecordAsync(uid, details string, result Result) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := l.Record(ctx, uid, details, result); err != nil {
			slog.Warn("work history not recorded", "uid", uid, "kind", string(result.Kind()), "err", err)
		}
	}()
}

// List returns the user's entries, newest first.
func (l *Log) List(ctx context.Context, uid string) ([]Entry, error) {
	docs, err := l.store.List(ctx, collection(uid))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		var s stored
		if err := d.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", d.ID, err)
		}
		e := Entry{ID: d.ID, Timestamp: s.Timestamp, Kind: s.ActivityType, Details: s.Details}
		if mk, ok := recordable[s.ActivityType]; ok && len(s.Result) > 0 {
			r := mk()
			if err := json.Unmarshal(s.Result, r); err != nil {
				return nil, fmt.Errorf("decode %s result %s: %w", s.ActivityType, d.ID, err)
			}
			e.Result = r
		}
		out = append(out, e)
	}
	return out, nil
}

// Describe builds the details line for a request of kind.
func Describe(kind advisor.Kind, subject string) string {
	switch kind {
	case advisor.KindStockAnalysis:
		return "Analyzed " + subject
	case advisor.KindMarketSentiment:
		return "Sentiment query: " + subject
	case advisor.KindOptionStrategy:
		return "Generated a strategy for a " + subject + " risk profile"
	case advisor.KindExpenseAnalysis:
		return "Analyzed " + subject + " expenses"
	}
	return subject
}
