package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/bharatvest/sim-engine/internal/clock"
	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/session"
	"github.com/bharatvest/sim-engine/internal/sim"
)

type statusCmd struct {
	at string
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "tell whether the market is open" }
func (*statusCmd) Usage() string {
	return `bvctl status [-at <RFC3339 time>]

  Reports whether NSE/BSE are in session (09:15 to 15:30 IST, Mon-Fri).
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.at, "at", "", "time to evaluate (defaults to now)")
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now()
	if c.at != "" {
		t, err := time.Parse(time.RFC3339, c.at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -at: %v\n", err)
			return subcommands.ExitUsageError
		}
		now = t
	}
	state := "closed"
	if clock.IsOpen(now) {
		state = "open"
	}
	fmt.Printf("market is %s at %s\n", state, now.In(clock.IST).Format("Mon 02 Jan 15:04 MST"))
	return subcommands.ExitSuccess
}

type simulateCmd struct {
	ticks int
	seed  uint64
	basis string
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "run the price simulator and show the movers" }
func (*simulateCmd) Usage() string {
	return `bvctl simulate [-ticks n] [-seed s] [-basis reference|tick]

  Advances the default market by n ticks and prints indices and movers.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.ticks, "ticks", 10, "number of ticks to simulate")
	f.Uint64Var(&c.seed, "seed", 0, "random seed (0 seeds from the clock)")
	f.StringVar(&c.basis, "basis", "reference", "change basis (reference, tick)")
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	basis, err := sim.ParseBasis(c.basis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.ticks < 0 {
		fmt.Fprintln(os.Stderr, "Error: -ticks must not be negative")
		return subcommands.ExitUsageError
	}

	sess := session.New(session.Config{Basis: basis, Seed: c.seed})
	snap := sess.Snapshot()
	for i := 0; i < c.ticks; i++ {
		snap = sess.Tick()
	}
	printMarkdown(simulationMarkdown(snap))
	return subcommands.ExitSuccess
}

func simulationMarkdown(s session.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Market after %d ticks\n\n", s.Seq)

	b.WriteString("## Indices\n\n| Index | Value | Change | % |\n|---|---:|---:|---:|\n")
	for _, x := range s.Indices {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", x.Name, x.Value.StringFixed(2), x.Change.StringFixed(2), x.ChangePercent.StringFixed(2))
	}

	moverTable(&b, "Top gainers", s.Movers.Gainers)
	moverTable(&b, "Top losers", s.Movers.Losers)

	v := s.Valuation
	fmt.Fprintf(&b, "\n## Portfolio\n\nInvested %s, now worth %s (P&L %s)\n",
		model.INR(v.TotalInvestment), model.INR(v.CurrentValue), model.INR(v.OverallPL))
	return b.String()
}

func moverTable(b *strings.Builder, title string, list []model.Instrument) {
	fmt.Fprintf(b, "\n## %s\n\n| Symbol | Price | %% |\n|---|---:|---:|\n", title)
	for _, x := range list {
		fmt.Fprintf(b, "| %s | %s | %s |\n", x.Symbol, x.Price.StringFixed(2), x.ChangePercent.StringFixed(2))
	}
}
