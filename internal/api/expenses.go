package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/expense"
	"github.com/bharatvest/sim-engine/internal/history"
	"github.com/bharatvest/sim-engine/internal/model"
)

// ExpensesResponse is the JSON body returned from GET /expenses.
type ExpensesResponse struct {
	Expenses []expense.Expense `json:"expenses"`
	Total    string            `json:"total"`
}

// ListExpenses handles GET /api/v1/expenses
func (s *Service) ListExpenses(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := s.expenses.List(r.Context(), uid)
	if err != nil {
		slog.Error("expense list failed", "uid", uid, "err", err)
		writeError(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ExpensesResponse{Expenses: list, Total: model.INR(expense.Total(list))})
}

// AddExpense handles POST /api/v1/expenses
func (s *Service) AddExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var e expense.Expense
	if !decodeBody(w, r, &e) {
		return
	}
	saved, err := s.expenses.Add(r.Context(), uid, e)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// AnalyzeExpenses handles POST /api/v1/expenses/analyze
// Runs the expense analysis over the caller's recorded expenses.
func (s *Service) AnalyzeExpenses(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if s.advisor == nil {
		writeError(w, "advisor is not configured", http.StatusServiceUnavailable)
		return
	}
	list, err := s.expenses.List(r.Context(), uid)
	if err != nil {
		writeError(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}
	out, err := s.advisor.AnalyzeExpenses(r.Context(), advisor.ExpenseAnalysisInput{Expenses: list})
	if err != nil {
		writeAdvisorError(w, err)
		return
	}
	if s.history != nil {
		s.history.RecordAsync(uid, history.Describe(advisor.KindExpenseAnalysis, strconv.Itoa(len(list))), out)
	}
	writeJSON(w, http.StatusOK, out)
}

// CategorizeRequest is the JSON body for POST /expenses/categorize.
type CategorizeRequest struct {
	Name string `json:"name"`
}

// CategorizeExpense handles POST /api/v1/expenses/categorize
// Requests are debounced per user: a newer request supersedes a pending
// one, which then answers 409.
func (s *Service) CategorizeExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if s.categorizer == nil {
		writeError(w, "advisor is not configured", http.StatusServiceUnavailable)
		return
	}
	var req CategorizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cat, err := s.categorizer.Categorize(r.Context(), uid, req.Name)
	if err != nil {
		writeAdvisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]expense.Category{"category": cat})
}
