package expense

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCategorizer struct {
	mu    sync.Mutex
	calls []string
	cat   Category
	err   error
}

func (f *fakeCategorizer) CategorizeExpense(_ context.Context, name string) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.cat, f.err
}

func (f *fakeCategorizer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestDebouncer_OnlyLastRuns(t *testing.T) {
	db := NewDebouncer(20 * time.Millisecond)
	var runs atomic.Int32
	var last atomic.Value

	for _, v := range []string{"c", "ch", "cha", "chai"} {
		db.Do("u1", func(context.Context) {
			runs.Add(1)
			last.Store(v)
		})
	}
	time.Sleep(100 * time.Millisecond)

	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
	if last.Load() != "chai" {
		t.Errorf("last = %v, want chai", last.Load())
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	db := NewDebouncer(10 * time.Millisecond)
	var runs atomic.Int32
	db.Do("u1", func(context.Context) { runs.Add(1) })
	db.Do("u2", func(context.Context) { runs.Add(1) })
	time.Sleep(60 * time.Millisecond)

	if runs.Load() != 2 {
		t.Errorf("runs = %d, want 2", runs.Load())
	}
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	db := NewDebouncer(20 * time.Millisecond)
	var runs atomic.Int32
	ctx := db.Do("u1", func(context.Context) { runs.Add(1) })
	db.Cancel("u1")
	db.Do("u2", func(context.Context) { runs.Add(1) })
	db.Stop()
	time.Sleep(60 * time.Millisecond)

	if runs.Load() != 0 {
		t.Errorf("runs = %d, want 0", runs.Load())
	}
	if ctx.Err() == nil {
		t.Error("cancelled task context should be done")
	}
}

func TestAutoCategorizer_SuggestDebounces(t *testing.T) {
	fc := &fakeCategorizer{cat: Food}
	ac := NewAutoCategorizer(fc, 20*time.Millisecond)
	got := make(chan Category, 4)

	ac.Suggest("u1", "Ch", func(c Category, _ error) { got <- c })
	ac.Suggest("u1", "Chai", func(c Category, _ error) { got <- c })

	select {
	case c := <-got:
		if c != Food {
			t.Errorf("category = %q, want food", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no suggestion delivered")
	}
	time.Sleep(50 * time.Millisecond)
	if calls := fc.Calls(); len(calls) != 1 || calls[0] != "Chai" {
		t.Errorf("calls = %v, want [Chai]", calls)
	}
}

func TestAutoCategorizer_BlankCancels(t *testing.T) {
	fc := &fakeCategorizer{cat: Food}
	ac := NewAutoCategorizer(fc, 20*time.Millisecond)
	ac.Suggest("u1", "Chai", func(Category, error) { t.Error("cancelled suggestion delivered") })
	ac.Suggest("u1", "   ", func(Category, error) { t.Error("blank name delivered") })
	time.Sleep(60 * time.Millisecond)

	if calls := fc.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestAutoCategorizer_CategorizeSuperseded(t *testing.T) {
	fc := &fakeCategorizer{cat: Shopping}
	ac := NewAutoCategorizer(fc, 30*time.Millisecond)

	first := make(chan error, 1)
	go func() {
		_, err := ac.Categorize(context.Background(), "u1", "Sho")
		first <- err
	}()
	time.Sleep(5 * time.Millisecond)

	cat, err := ac.Categorize(context.Background(), "u1", "Shoes")
	if err != nil || cat != Shopping {
		t.Fatalf("Categorize = %q, %v", cat, err)
	}
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first request: expected ErrSuperseded, got %v", err)
	}
}

func TestAutoCategorizer_CategorizePropagatesError(t *testing.T) {
	boom := errors.New("model down")
	ac := NewAutoCategorizer(&fakeCategorizer{err: boom}, time.Millisecond)
	if _, err := ac.Categorize(context.Background(), "u1", "Chai"); !errors.Is(err, boom) {
		t.Errorf("expected model error, got %v", err)
	}
}
