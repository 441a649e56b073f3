// Package symbol parses Indian exchange tickers such as RELIANCE.NS or
// 500325.BO.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Supported exchanges.
const (
	ExchangeNSE = "NSE"
	ExchangeBSE = "BSE"
)

var suffixes = map[string]string{
	"NS": ExchangeNSE,
	"BO": ExchangeBSE,
}

// tickerRegex matches: {BASE}.{NS|BO}
// Example: BAJAJ-AUTO.NS, M&M.NS, 500325.BO
var tickerRegex = regexp.MustCompile(`^([A-Z0-9&-]+)\.([A-Z]+)$`)

var (
	ErrInvalidSymbol = errors.New("symbol: invalid ticker format")
	ErrUnknownSuffix = errors.New("symbol: unsupported exchange suffix")
)

// Symbol is a parsed exchange ticker.
type Symbol struct {
	Ticker   string `json:"ticker"`
	Base     string `json:"base"`
	Exchange string `json:"exchange"`
}

// Parse validates and splits a ticker. Surrounding whitespace is ignored;
// case is significant.
func Parse(ticker string) (Symbol, error) {
	ticker = strings.TrimSpace(ticker)
	m := tickerRegex.FindStringSubmatch(ticker)
	if m == nil {
		return Symbol{}, fmt.Errorf("%w: %q (expected BASE.NS or BASE.BO)", ErrInvalidSymbol, ticker)
	}
	exch, ok := suffixes[m[2]]
	if !ok {
		return Symbol{}, fmt.Errorf("%w: %s", ErrUnknownSuffix, m[2])
	}
	return Symbol{Ticker: ticker, Base: m[1], Exchange: exch}, nil
}
