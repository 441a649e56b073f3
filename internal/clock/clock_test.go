package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bharatvest/sim-engine/internal/model"
)

// ist builds an instant from IST wall-clock fields and returns it in UTC.
func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IST).UTC()
}

func TestIsOpen(t *testing.T) {
	// 2025-06-18 is a Wednesday, 2025-06-21 a Saturday.
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"wednesday 09:20", ist(2025, 6, 18, 9, 20), true},
		{"wednesday 09:15 open bell", ist(2025, 6, 18, 9, 15), true},
		{"wednesday 09:14", ist(2025, 6, 18, 9, 14), false},
		{"wednesday 15:30 close bell", ist(2025, 6, 18, 15, 30), true},
		{"wednesday 15:31", ist(2025, 6, 18, 15, 31), false},
		{"wednesday 16:00", ist(2025, 6, 18, 16, 0), false},
		{"saturday 12:00", ist(2025, 6, 21, 12, 0), false},
		{"sunday 12:00", ist(2025, 6, 22, 12, 0), false},
		{"monday 10:00", ist(2025, 6, 16, 10, 0), true},
		{"friday 15:00", ist(2025, 6, 20, 15, 0), true},
	}
	for _, tt := range tests {
		if got := IsOpen(tt.at); got != tt.want {
			t.Errorf("%s (%s UTC): got %v, want %v", tt.name, tt.at.Format(time.RFC3339), got, tt.want)
		}
	}
}

func TestIsOpen_MinuteCarry(t *testing.T) {
	// 03:45 UTC is 09:15 IST: the +30 minutes carries into the hour.
	at := time.Date(2025, 6, 18, 3, 45, 0, 0, time.UTC)
	if !IsOpen(at) {
		t.Errorf("03:45 UTC should be 09:15 IST and open")
	}
	// 03:44 UTC is 09:14 IST.
	if IsOpen(at.Add(-time.Minute)) {
		t.Errorf("03:44 UTC should be closed")
	}
}

func TestIsOpen_DayWrap(t *testing.T) {
	// Friday 20:00 UTC is Saturday 01:30 IST.
	at := time.Date(2025, 6, 20, 20, 0, 0, 0, time.UTC)
	if IsOpen(at) {
		t.Error("late Friday UTC is Saturday in IST and closed")
	}
}

func TestClock_CheckAndOnChange(t *testing.T) {
	now := ist(2025, 6, 18, 9, 0)
	var mu sync.Mutex
	var changes []model.MarketStatus

	c := New(
		WithNow(func() time.Time { return now }),
		OnChange(func(st model.MarketStatus) {
			mu.Lock()
			changes = append(changes, st)
			mu.Unlock()
		}),
	)
	if c.Status().Open {
		t.Fatal("09:00 IST should start closed")
	}

	now = ist(2025, 6, 18, 9, 30)
	if st := c.Check(); !st.Open {
		t.Fatal("09:30 IST should be open")
	}
	c.Check() // no flip

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 || !changes[0].Open {
		t.Errorf("expected one open transition, got %+v", changes)
	}
	if !c.Status().CheckedAt.Equal(now) {
		t.Errorf("cached CheckedAt = %v, want %v", c.Status().CheckedAt, now)
	}
}

func TestClock_RunStopsOnCancel(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
