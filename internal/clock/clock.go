// Package clock tells whether the Indian equity market is in session.
//
// Trading hours are 09:15 to 15:30 IST, Monday to Friday, both ends
// inclusive. Exchange holidays are not modelled.
package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bharatvest/sim-engine/internal/model"
)

// IST is India Standard Time, a fixed UTC+05:30 offset with no DST.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Session bounds in minutes after midnight IST.
const (
	openMinute  = 9*60 + 15
	closeMinute = 15*60 + 30
)

// DefaultInterval is how often Run re-evaluates the market status.
const DefaultInterval = 60 * time.Second

// IsOpen reports whether the market is in session at now.
func IsOpen(now time.Time) bool {
	ist := now.In(IST)
	switch ist.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	m := ist.Hour()*60 + ist.Minute()
	return m >= openMinute && m <= closeMinute
}

// Clock caches the last market status and re-evaluates it on a poll.
type Clock struct {
	now      func() time.Time
	onChange func(model.MarketStatus)

	mu   sync.RWMutex
	last model.MarketStatus
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// OnChange registers a hook invoked when the open flag flips.
func OnChange(fn func(model.MarketStatus)) Option {
	return func(c *Clock) { c.onChange = fn }
}

// New creates a Clock and evaluates the status once.
func New(opts ...Option) *Clock {
	c := &Clock{now: time.Now}
	for _, o := range opts {
		o(c)
	}
	c.last = model.MarketStatus{Open: IsOpen(c.now()), CheckedAt: c.now().UTC()}
	return c
}

// Status returns the cached status.
func (c *Clock) Status() model.MarketStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Check re-evaluates the status at the current time and caches it.
func (c *Clock) Check() model.MarketStatus {
	now := c.now()
	st := model.MarketStatus{Open: IsOpen(now), CheckedAt: now.UTC()}

	c.mu.Lock()
	changed := st.Open != c.last.Open
	c.last = st
	c.mu.Unlock()

	if changed {
		slog.Info("market status changed", "open", st.Open)
		if c.onChange != nil {
			c.onChange(st)
		}
	}
	return st
}

// Run checks the status every interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check()
		}
	}
}
