package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/config"
)

type adviseCmd struct {
	input string
}

func (*adviseCmd) Name() string     { return "advise" }
func (*adviseCmd) Synopsis() string { return "ask the AI advisor" }
func (*adviseCmd) Usage() string {
	return `bvctl advise [-input <file.json>] <kind> [field=value...]

  Runs one advisor request against Gemini. GEMINI_API_KEY must be set.
  Kinds: stock_analysis, market_sentiment, option_strategy,
  expense_analysis, expense_category.

  Example:
    bvctl advise stock_analysis stockSymbol=TCS.NS query="Is it a buy?"
`
}

func (c *adviseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "", "read the request JSON from this file instead of field=value args")
}

func (c *adviseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: kind is required")
		return subcommands.ExitUsageError
	}
	kind, err := advisor.ParseKind(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	raw, err := c.request(f.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY is not set")
		return subcommands.ExitFailure
	}
	model, err := advisor.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	adv, err := advisor.New(model, advisor.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := adv.Generate(ctx, kind, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(adviceMarkdown(out))
	return subcommands.ExitSuccess
}

// request builds the input record from -input or field=value pairs.
func (c *adviseCmd) request(args []string) (json.RawMessage, error) {
	if c.input != "" {
		data, err := os.ReadFile(c.input)
		return json.RawMessage(data), err
	}
	fields := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q is not field=value", a)
		}
		fields[k] = v
	}
	data, err := json.Marshal(fields)
	return json.RawMessage(data), err
}

func adviceMarkdown(out advisor.Output) string {
	var b strings.Builder
	switch o := out.(type) {
	case *advisor.StockAnalysis:
		fmt.Fprintf(&b, "# Stock analysis\n\n%s\n\n**Recommendation:** %s\n", o.Analysis, o.Recommendation)
	case *advisor.MarketSentiment:
		fmt.Fprintf(&b, "# Market sentiment: %s\n\n%s\n", o.Sentiment, o.Reasoning)
	case *advisor.OptionStrategy:
		fmt.Fprintf(&b, "# %s\n\n%s\n\n## Rationale\n\n%s\n\n## Risk\n\n%s\n\n## Potential return\n\n%s\n",
			o.StrategyName, o.Description, o.Rationale, o.Risk, o.PotentialReturn)
		if o.MarketConditions != "" {
			fmt.Fprintf(&b, "\n## Market conditions\n\n%s\n", o.MarketConditions)
		}
		if o.ExampleTrade != "" {
			fmt.Fprintf(&b, "\n## Example trade\n\n%s\n", o.ExampleTrade)
		}
	case *advisor.ExpenseAnalysis:
		fmt.Fprintf(&b, "# Spending summary\n\n%s\n\n## Suggestions\n\n%s\n", o.Summary, o.Suggestions)
	case *advisor.ExpenseCategory:
		fmt.Fprintf(&b, "Category: **%s**\n", o.Category)
	default:
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintf(&b, "```json\n%s\n```\n", data)
	}
	return b.String()
}
