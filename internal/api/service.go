// Package api provides the HTTP handlers for the simulated market, the
// portfolio, the advisor and the per-user records.
//
// All monetary values use shopspring/decimal. Requests that act on behalf
// of a user identify them with the X-User-ID header.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/clock"
	"github.com/bharatvest/sim-engine/internal/expense"
	"github.com/bharatvest/sim-engine/internal/history"
	"github.com/bharatvest/sim-engine/internal/portfolio"
	"github.com/bharatvest/sim-engine/internal/profile"
	"github.com/bharatvest/sim-engine/internal/session"
	"github.com/bharatvest/sim-engine/internal/store"
	"github.com/bharatvest/sim-engine/internal/symbol"
)

// UserHeader carries the caller's user id.
const UserHeader = "X-User-ID"

// maxBody bounds request bodies, CSV imports included.
const maxBody = 1 << 20

// Deps are the collaborators of Service. Advisor and Categorizer may be nil
// when no model is configured; their endpoints then answer 503.
type Deps struct {
	Session     *session.Session
	Clock       *clock.Clock
	Advisor     *advisor.Advisor
	History     *history.Log
	Expenses    *expense.Book
	Categorizer *expense.AutoCategorizer
	Profiles    *profile.Service
}

// Service handles HTTP requests against one simulation session.
type Service struct {
	sess        *session.Session
	clock       *clock.Clock
	advisor     *advisor.Advisor
	history     *history.Log
	expenses    *expense.Book
	categorizer *expense.AutoCategorizer
	profiles    *profile.Service
}

// NewService creates a new API service.
func NewService(d Deps) *Service {
	return &Service{
		sess:        d.Session,
		clock:       d.Clock,
		advisor:     d.Advisor,
		history:     d.History,
		expenses:    d.Expenses,
		categorizer: d.Categorizer,
		profiles:    d.Profiles,
	}
}

// Mount registers the /api/v1 routes on r.
func (s *Service) Mount(r chi.Router) {
	r.Get("/market/instruments", s.ListInstruments)
	r.Get("/market/indices", s.ListIndices)
	r.Get("/market/movers", s.GetMovers)
	r.Get("/market/status", s.GetMarketStatus)
	r.Get("/watchlist", s.GetWatchlist)

	r.Get("/portfolio", s.GetPortfolio)
	r.Post("/portfolio/trades", s.ExecuteTrade)
	r.Get("/portfolio/export", s.ExportPortfolio)
	r.Post("/portfolio/import", s.ImportPortfolio)

	r.Post("/advisor/{kind}", s.Advise)
	r.Get("/history", s.ListHistory)

	r.Get("/expenses", s.ListExpenses)
	r.Post("/expenses", s.AddExpense)
	r.Post("/expenses/analyze", s.AnalyzeExpenses)
	r.Post("/expenses/categorize", s.CategorizeExpense)

	r.Get("/profile", s.GetProfile)
	r.Put("/profile", s.SaveProfile)
	r.Post("/users/signin", s.SignIn)
}

// userID returns the caller's id or writes a 401.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, present := optionalUserID(r)
	if uid == "" {
		msg := UserHeader + " header is required"
		if present {
			msg = "invalid " + UserHeader + " header"
		}
		writeError(w, msg, http.StatusUnauthorized)
		return "", false
	}
	return uid, true
}

// optionalUserID returns the caller's id when the header carries a usable
// one. present reports whether the header was set at all. Ids containing
// "/" would address another document path and are never returned.
func optionalUserID(r *http.Request) (uid string, present bool) {
	uid = strings.TrimSpace(r.Header.Get(UserHeader))
	if uid == "" {
		return "", false
	}
	if strings.Contains(uid, "/") {
		return "", true
	}
	return uid, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrInvalidQuantity),
		errors.Is(err, portfolio.ErrInvalidDirection),
		errors.Is(err, portfolio.ErrMalformedCSV),
		errors.Is(err, symbol.ErrInvalidSymbol),
		errors.Is(err, symbol.ErrUnknownSuffix),
		errors.Is(err, expense.ErrInvalidExpense),
		errors.Is(err, profile.ErrInvalidProfile),
		errors.Is(err, advisor.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, portfolio.ErrUnknownInstrument),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, advisor.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrInsufficientShares),
		errors.Is(err, portfolio.ErrNoHolding),
		errors.Is(err, expense.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, advisor.ErrEmptyResponse),
		errors.Is(err, advisor.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
