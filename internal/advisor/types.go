package advisor

import (
	"fmt"
	"strings"

	"github.com/bharatvest/sim-engine/internal/expense"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// required checks name/value pairs and reports the first blank value.
func required(err error, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if blank(pairs[i+1]) {
			return fmt.Errorf("%w: %s is required", err, pairs[i])
		}
	}
	return nil
}

// --- Stock analysis ---

type StockAnalysisInput struct {
	StockSymbol string `json:"stockSymbol"`
	Query       string `json:"query"`
}

func (in StockAnalysisInput) validate() error {
	return required(ErrInvalidInput, "stockSymbol", in.StockSymbol, "query", in.Query)
}

type StockAnalysis struct {
	Analysis       string `json:"analysis"`
	Recommendation string `json:"recommendation"`
}

func (StockAnalysis) Kind() Kind { return KindStockAnalysis }

func (o StockAnalysis) validate() error {
	return required(ErrEmptyResponse, "analysis", o.Analysis, "recommendation", o.Recommendation)
}

// --- Market sentiment ---

type MarketSentimentInput struct {
	Query string `json:"query"`
}

func (in MarketSentimentInput) validate() error {
	return required(ErrInvalidInput, "query", in.Query)
}

type MarketSentiment struct {
	Sentiment string `json:"sentiment"`
	Reasoning string `json:"reasoning"`
}

func (MarketSentiment) Kind() Kind { return KindMarketSentiment }

func (o MarketSentiment) validate() error {
	return required(ErrEmptyResponse, "sentiment", o.Sentiment, "reasoning", o.Reasoning)
}

// --- Option strategy ---

// OptionStrategyInput describes the investor. MarketOutlook and Stock are
// optional.
type OptionStrategyInput struct {
	RiskProfile     string `json:"riskProfile"`
	InvestmentGoals string `json:"investmentGoals"`
	MarketOutlook   string `json:"marketOutlook,omitempty"`
	Stock           string `json:"stock,omitempty"`
}

func (in OptionStrategyInput) validate() error {
	return required(ErrInvalidInput, "riskProfile", in.RiskProfile, "investmentGoals", in.InvestmentGoals)
}

type OptionStrategy struct {
	StrategyName     string `json:"strategyName"`
	Description      string `json:"description"`
	Rationale        string `json:"rationale"`
	Risk             string `json:"risk"`
	PotentialReturn  string `json:"potentialReturn"`
	MarketConditions string `json:"marketConditions"`
	ExampleTrade     string `json:"exampleTrade"`
}

func (OptionStrategy) Kind() Kind { return KindOptionStrategy }

func (o OptionStrategy) validate() error {
	return required(ErrEmptyResponse, "strategyName", o.StrategyName, "description", o.Description)
}

// --- Expense analysis ---

type ExpenseAnalysisInput struct {
	Expenses []expense.Expense `json:"expenses"`
}

func (in ExpenseAnalysisInput) validate() error {
	if len(in.Expenses) == 0 {
		return fmt.Errorf("%w: expenses must not be empty", ErrInvalidInput)
	}
	return nil
}

type ExpenseAnalysis struct {
	Summary     string `json:"summary"`
	Suggestions string `json:"suggestions"`
}

func (ExpenseAnalysis) Kind() Kind { return KindExpenseAnalysis }

func (o ExpenseAnalysis) validate() error {
	return required(ErrEmptyResponse, "summary", o.Summary, "suggestions", o.Suggestions)
}

// --- Expense category ---

type ExpenseCategoryInput struct {
	ExpenseName string `json:"expenseName"`
}

// Categories lists the allowed answers for the prompt.
func (ExpenseCategoryInput) Categories() []expense.Category { return expense.Categories }

func (in ExpenseCategoryInput) validate() error {
	return required(ErrInvalidInput, "expenseName", in.ExpenseName)
}

type ExpenseCategory struct {
	Category expense.Category `json:"category"`
}

func (ExpenseCategory) Kind() Kind { return KindExpenseCategory }

// validate normalises the category and rejects anything off the list.
func (o *ExpenseCategory) validate() error {
	if blank(string(o.Category)) {
		return fmt.Errorf("%w: category is required", ErrEmptyResponse)
	}
	c, err := expense.ParseCategory(string(o.Category))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	o.Category = c
	return nil
}
