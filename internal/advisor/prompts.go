package advisor

import (
	"encoding/json"
	"text/template"

	"google.golang.org/genai"

	"github.com/bharatvest/sim-engine/internal/expense"
)

type flow struct {
	tmpl      *template.Template
	schema    *genai.Schema
	newInput  func() input
	newOutput func() Output
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

func prompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func categoryNames() []string {
	out := make([]string, len(expense.Categories))
	for i, c := range expense.Categories {
		out[i] = string(c)
	}
	return out
}

var flows = map[Kind]flow{
	KindStockAnalysis: {
		tmpl: prompt("stock_analysis", `You are an AI financial assistant specializing in Indian stocks listed on the NSE and BSE.

Analyze the stock below based on its financial performance, market trends and news sentiment, then give an investment recommendation.
Express all financial figures in Indian Rupees (₹). Answer in the language of the user's query (English or Hindi).

Stock Symbol: {{.StockSymbol}}
User Query: {{.Query}}`),
		schema: object([]string{"analysis", "recommendation"}, map[string]*genai.Schema{
			"analysis":       str("Comprehensive analysis covering financial performance, market trends and news sentiment."),
			"recommendation": str("Investment recommendation based on the analysis."),
		}),
		newInput:  func() input { return &StockAnalysisInput{} },
		newOutput: func() Output { return &StockAnalysis{} },
	},

	KindMarketSentiment: {
		tmpl: prompt("market_sentiment", `You are an AI assistant specialized in market sentiment for the Indian stock market (NSE/BSE).

The user asks about the sentiment of a stock or sector in English or Hindi. Classify the overall sentiment as positive, negative or neutral and explain your reasoning.
Respond in the same language as the query.

Query: {{.Query}}`),
		schema: object([]string{"sentiment", "reasoning"}, map[string]*genai.Schema{
			"sentiment": str("Overall market sentiment for the query."),
			"reasoning": str("Reasoning behind the sentiment."),
		}),
		newInput:  func() input { return &MarketSentimentInput{} },
		newOutput: func() Output { return &MarketSentiment{} },
	},

	KindOptionStrategy: {
		tmpl: prompt("option_strategy", `You are an expert options strategist for the Indian stock market (NSE/BSE). Propose one options trading strategy for the investor below.

Consider NIFTY and SENSEX trends, Indian market volatility and concrete Indian stock examples such as RELIANCE.NS or TCS.NS.

Risk Profile: {{.RiskProfile}}
Investment Goals: {{.InvestmentGoals}}
{{- with .MarketOutlook}}
Market Outlook: {{.}}{{end}}
{{- with .Stock}}
Stock: {{.}}{{end}}`),
		schema: object([]string{"strategyName", "description", "rationale", "risk", "potentialReturn", "marketConditions", "exampleTrade"}, map[string]*genai.Schema{
			"strategyName":     str("Name of the options strategy."),
			"description":      str("Detailed description of the strategy."),
			"rationale":        str("Why the strategy suits the risk profile and goals."),
			"risk":             str("Risk level of the strategy."),
			"potentialReturn":  str("Potential return of the strategy."),
			"marketConditions": str("Ideal market conditions, e.g. bullish, bearish, neutral or volatile."),
			"exampleTrade":     str("Sample trade using Indian stocks."),
		}),
		newInput:  func() input { return &OptionStrategyInput{} },
		newOutput: func() Output { return &OptionStrategy{} },
	},

	KindExpenseAnalysis: {
		tmpl: prompt("expense_analysis", `You are an AI financial assistant. Analyze the expenses below and describe the user's spending habits with actionable suggestions for improvement.

Expenses (JSON, amounts in INR):
{{json .Expenses}}

Give a 'summary' of the spending (for example which category dominated) and 'suggestions' for how to save money. Keep the tone friendly and encouraging.`),
		schema: object([]string{"summary", "suggestions"}, map[string]*genai.Schema{
			"summary":     str("Brief summary of the user's spending habits."),
			"suggestions": str("Actionable suggestions for saving money or budgeting better."),
		}),
		newInput:  func() input { return &ExpenseAnalysisInput{} },
		newOutput: func() Output { return &ExpenseAnalysis{} },
	},

	KindExpenseCategory: {
		tmpl: prompt("expense_category", `You are an AI assistant that categorizes expenses. Choose the most relevant category for the expense name from the list.

Expense Name: {{.ExpenseName}}

Available Categories:
{{- range .Categories}}
- {{.}}{{end}}

Your answer must be exactly one of the categories above.`),
		schema: object([]string{"category"}, map[string]*genai.Schema{
			"category": {Type: genai.TypeString, Description: "Suggested category.", Enum: categoryNames()},
		}),
		newInput:  func() input { return &ExpenseCategoryInput{} },
		newOutput: func() Output { return &ExpenseCategory{} },
	},
}
