package portfolio

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/model"
)

// CSVHeader is the header row of the portfolio interchange format.
const CSVHeader = "symbol,name,quantity,avgPrice,currentPrice"

// ErrMalformedCSV is returned when an import cannot be parsed. Imports are
// all-or-nothing: no holdings are produced when any row is malformed.
var ErrMalformedCSV = errors.New("portfolio: failed to parse CSV")

// ExportCSV writes holdings in the interchange format: a header row, then
// one row per holding, newline separated with no trailing newline. Fields
// are not quoted, so names containing commas do not round-trip.
func ExportCSV(w io.Writer, holdings []model.Holding) error {
	rows := make([]string, 0, len(holdings)+1)
	rows = append(rows, CSVHeader)
	for _, h := range holdings {
		rows = append(rows, strings.Join([]string{
			h.Symbol,
			h.Name,
			strconv.FormatInt(h.Quantity, 10),
			h.AvgPrice.String(),
			h.CurrentPrice.String(),
		}, ","))
	}
	_, err := io.WriteString(w, strings.Join(rows, "\n"))
	return err
}

// ImportCSV parses holdings from the interchange format. The first line is
// skipped unconditionally and rows with an empty symbol are dropped.
func ImportCSV(r io.Reader) ([]model.Holding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	lines := strings.Split(string(data), "\n")
	holdings := make([]model.Holding, 0, len(lines))
	for n, line := range lines[1:] {
		fields := strings.Split(strings.TrimSuffix(line, "\r"), ",")
		if fields[0] == "" {
			continue
		}
		h, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, n+2, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func parseRow(fields []string) (model.Holding, error) {
	if len(fields) < 5 {
		return model.Holding{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return model.Holding{}, fmt.Errorf("quantity: %w", err)
	}
	if qty <= 0 {
		return model.Holding{}, fmt.Errorf("quantity: %d is not positive", qty)
	}
	avg, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
	if err != nil {
		return model.Holding{}, fmt.Errorf("avgPrice: %w", err)
	}
	cur, err := decimal.NewFromString(strings.TrimSpace(fields[4]))
	if err != nil {
		return model.Holding{}, fmt.Errorf("currentPrice: %w", err)
	}
	return model.Holding{
		Symbol:       fields[0],
		Name:         fields[1],
		Quantity:     qty,
		AvgPrice:     avg,
		CurrentPrice: cur,
	}, nil
}
