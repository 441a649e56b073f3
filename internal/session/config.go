package session

import (
	"time"

	"github.com/bharatvest/sim-engine/internal/sim"
)

// Config holds configuration for a simulation session.
type Config struct {
	// TickInterval is the wall-clock time between ticks.
	TickInterval time.Duration
	// Basis selects what change and change percent are measured from.
	Basis sim.Basis
	// Seed seeds the random walk. Zero seeds from the clock.
	Seed uint64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 3 * time.Second,
		Basis:        sim.BasisReference,
	}
}
