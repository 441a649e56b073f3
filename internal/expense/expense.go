// Package expense records personal expenses and suggests categories for
// them as the user types.
package expense

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/store"
)

// DateLayout is the calendar-date format of Expense.Date.
const DateLayout = "2006-01-02"

// Category is one of a fixed set of spending categories.
type Category string

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Housing       Category = "housing"
	Utilities     Category = "utilities"
	Entertainment Category = "entertainment"
	Health        Category = "health"
	Shopping      Category = "shopping"
	Other         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{Food, Transport, Housing, Utilities, Entertainment, Health, Shopping, Other}

var (
	ErrUnknownCategory = errors.New("expense: unknown category")
	ErrInvalidExpense  = errors.New("expense: invalid expense")
)

// ParseCategory normalises s and checks it against Categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Expense is a single recorded spend. Amounts are in INR.
type Expense struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category Category        `json:"category"`
	Date     string          `json:"date"`
}

// Validate checks that e can be recorded.
func (e Expense) Validate() error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidExpense)
	case !e.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidExpense)
	}
	return nil
}

// Book persists expenses per user under users/{uid}/expenses.
type Book struct {
	store store.Store
}

// NewBook creates a Book backed by st.
func NewBook(st store.Store) *Book {
	return &Book{store: st}
}

func collection(uid string) string {
	return store.Join("users", uid, "expenses")
}

// Add validates and stores e, returning it with its assigned ID.
func (b *Book) Add(ctx context.Context, uid string, e Expense) (Expense, error) {
	cat, err := ParseCategory(string(e.Category))
	if err == nil {
		e.Category = cat
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	e.Name = strings.TrimSpace(e.Name)
	e.ID = ""

	fields, err := store.Encode(e)
	if err != nil {
		return Expense{}, err
	}
	delete(fields, "id")
	id, err := b.store.Append(ctx, collection(uid), fields)
	if err != nil {
		return Expense{}, fmt.Errorf("record expense: %w", err)
	}
	e.ID = id
	return e, nil
}

// List returns the user's expenses, most recent date first. Expenses on
// the same date keep the store's newest-first order.
func (b *Book) List(ctx context.Context, uid string) ([]Expense, error) {
	docs, err := b.store.List(ctx, collection(uid))
	if err != nil {
		return nil, err
	}
	out := make([]Expense, 0, len(docs))
	for _, d := range docs {
		var e Expense
		if err := d.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode expense %s: %w", d.ID, err)
		}
		e.ID = d.ID
		out = append(out, e)
	}
	// DateLayout sorts lexically.
	slices.SortStableFunc(out, func(a, b Expense) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out, nil
}

// Total sums the amounts of expenses.
func Total(expenses []Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// ByCategory sums amounts per category.
func ByCategory(expenses []Expense) map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}
