package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/history"
)

// Advise handles POST /api/v1/advisor/{kind}
// The body is the input record of the kind. Successful results are added
// to the caller's work history when a user id is present; a malformed id
// is refused with 401.
func (s *Service) Advise(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, "advisor is not configured", http.StatusServiceUnavailable)
		return
	}
	uid, present := optionalUserID(r)
	if present && uid == "" {
		writeError(w, "invalid "+UserHeader+" header", http.StatusUnauthorized)
		return
	}
	kind, err := advisor.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out, err := s.advisor.Generate(r.Context(), kind, body)
	if err != nil {
		writeAdvisorError(w, err)
		return
	}

	if uid != "" && s.history != nil {
		if res, ok := out.(history.Result); ok && history.Recordable(kind) {
			s.history.RecordAsync(uid, history.Describe(kind, subject(kind, body)), res)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListHistory handles GET /api/v1/history
func (s *Service) ListHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	entries, err := s.history.List(r.Context(), uid)
	if err != nil {
		slog.Error("history list failed", "uid", uid, "err", err)
		writeError(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeAdvisorError maps advisor failures. Anything not caused by the
// request itself is reported as a bad gateway.
func writeAdvisorError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	writeError(w, err.Error(), status)
}

// subject picks the field that best names a request for its history line.
func subject(kind advisor.Kind, body []byte) string {
	var fields map[string]any
	json.Unmarshal(body, &fields)
	pick := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}
	switch kind {
	case advisor.KindStockAnalysis:
		return pick("stockSymbol")
	case advisor.KindMarketSentiment:
		return pick("query")
	case advisor.KindOptionStrategy:
		return pick("riskProfile")
	case advisor.KindExpenseAnalysis:
		n, _ := fields["expenses"].([]any)
		return fmt.Sprint(len(n))
	}
	return ""
}
