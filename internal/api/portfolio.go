package api

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/symbol"
)

// PortfolioResponse is the JSON body returned from GET /portfolio.
type PortfolioResponse struct {
	Holdings  []model.Holding  `json:"holdings"`
	Valuation model.Valuation  `json:"valuation"`
	Display   ValuationDisplay `json:"display"`
}

// TradeRequest is the JSON body for POST /portfolio/trades.
type TradeRequest struct {
	Type     model.Direction `json:"type"` // "buy" or "sell"
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
}

// GetPortfolio handles GET /api/v1/portfolio
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap := s.sess.Snapshot()
	holdings := snap.Holdings
	if holdings == nil {
		holdings = []model.Holding{}
	}
	writeJSON(w, http.StatusOK, PortfolioResponse{
		Holdings:  holdings,
		Valuation: snap.Valuation,
		Display:   displayValuation(snap.Valuation),
	})
}

// ExecuteTrade handles POST /api/v1/portfolio/trades
// Applies a simulated buy or sell at the live price.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// --- Input validation ---
	if !req.Type.Valid() {
		writeError(w, "type must be buy or sell", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		writeError(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	// Sells only need a matching holding, which CSV import may have created
	// under any symbol.
	if req.Type == model.Buy {
		if _, err := symbol.Parse(req.Symbol); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	res, err := s.sess.Trade(model.TradeIntent{Direction: req.Type, Symbol: req.Symbol, Quantity: req.Quantity})
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExportPortfolio handles GET /api/v1/portfolio/export
func (s *Service) ExportPortfolio(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.sess.ExportCSV(&buf); err != nil {
		writeError(w, "failed to export portfolio", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "portfolio.csv"}))
	w.Write(buf.Bytes())
}

// ImportPortfolio handles POST /api/v1/portfolio/import
// Accepts the CSV either as the raw body or as the "file" multipart field.
// The whole file is rejected if any row is malformed.
func (s *Service) ImportPortfolio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, "multipart field \"file\" is required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		src = f
	}

	holdings, err := s.sess.ImportCSV(src)
	if err != nil {
		slog.Warn("portfolio import rejected", "err", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(holdings), "holdings": holdings})
}
