package expense

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultQuiet is the pause in typing after which a category is suggested.
const DefaultQuiet = time.Second

// ErrSuperseded is returned to a caller whose request was replaced by a
// newer one for the same key.
var ErrSuperseded = errors.New("expense: superseded by a newer request")

// Debouncer runs at most one delayed task per key. Scheduling a task for a
// key cancels whatever is pending or running for it.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	pending map[string]*task
}

type task struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewDebouncer creates a Debouncer that waits quiet before running.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet, pending: make(map[string]*task)}
}

// Do schedules fn for key after the quiet period. The returned context is
// done once fn has returned or the task has been superseded or stopped.
func (d *Debouncer) Do(key string, fn func(ctx context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel}

	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		prev.cancel()
	}
	d.pending[key] = t
	t.timer = time.AfterFunc(d.quiet, func() {
		defer cancel()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
		d.mu.Lock()
		if d.pending[key] == t {
			delete(d.pending, key)
		}
		d.mu.Unlock()
	})
	return ctx
}

// Cancel drops the task pending for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[key]; ok {
		t.timer.Stop()
		t.cancel()
		delete(d.pending, key)
	}
}

// Stop cancels every pending task.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.pending {
		t.timer.Stop()
		t.cancel()
		delete(d.pending, key)
	}
}

// Categorizer suggests a category for an expense name.
type Categorizer interface {
	CategorizeExpense(ctx context.Context, name string) (Category, error)
}

// AutoCategorizer debounces categorisation requests per key, typically one
// key per user editing an expense.
type AutoCategorizer struct {
	c Categorizer
	d *Debouncer
}

// NewAutoCategorizer wires c behind a Debouncer with the given quiet period.
func NewAutoCategorizer(c Categorizer, quiet time.Duration) *AutoCategorizer {
	return &AutoCategorizer{c: c, d: NewDebouncer(quiet)}
}

// Suggest schedules categorisation of name and reports the result to cb.
// A blank name cancels any pending suggestion and cb is not called.
// Superseded requests never reach cb.
func (a *AutoCategorizer) Suggest(key, name string, cb func(Category, error)) {
	if strings.TrimSpace(name) == "" {
		a.d.Cancel(key)
		return
	}
	a.d.Do(key, func(ctx context.Context) {
		cat, err := a.c.CategorizeExpense(ctx, name)
		if ctx.Err() != nil {
			return
		}
		cb(cat, err)
	})
}

// Categorize is the blocking form of Suggest. It returns ErrSuperseded if
// a newer request for key arrives before this one completes.
func (a *AutoCategorizer) Categorize(ctx context.Context, key, name string) (Category, error) {
	if strings.TrimSpace(name) == "" {
		a.d.Cancel(key)
		return "", ErrInvalidExpense
	}

	type result struct {
		cat Category
		err error
	}
	done := make(chan result, 1)
	tctx := a.d.Do(key, func(ctx context.Context) {
		cat, err := a.c.CategorizeExpense(ctx, name)
		if ctx.Err() == nil {
			done <- result{cat, err}
		}
	})

	select {
	case r := <-done:
		return r.cat, r.err
	case <-tctx.Done():
		select {
		case r := <-done:
			return r.cat, r.err
		default:
			return "", ErrSuperseded
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop cancels all pending suggestions.
func (a *AutoCategorizer) Stop() {
	a.d.Stop()
}
