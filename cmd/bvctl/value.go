package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/portfolio"
)

type valueCmd struct {
	file string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a portfolio CSV export" }
func (*valueCmd) Usage() string {
	return `bvctl value -file <portfolio.csv>

  Reads a portfolio in the export format and prints its valuation at the
  prices recorded in the file.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "portfolio.csv", "portfolio CSV file")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	holdings, err := portfolio.ImportCSV(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	// No live market: value every holding at its recorded price.
	v := portfolio.Valuate(holdings, nil)

	var b strings.Builder
	b.WriteString("# Portfolio\n\n| Symbol | Qty | Avg | Price | P&L |\n|---|---:|---:|---:|---:|\n")
	for _, h := range holdings {
		pl := h.CurrentPrice.Sub(h.AvgPrice).Mul(decimal.NewFromInt(h.Quantity))
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", h.Symbol, h.Quantity, model.INR(h.AvgPrice), model.INR(h.CurrentPrice), model.INR(pl))
	}
	fmt.Fprintf(&b, "\n**Invested** %s  \n**Current** %s  \n**P&L** %s\n",
		model.INR(v.TotalInvestment), model.INR(v.CurrentValue), model.INR(v.OverallPL))
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
