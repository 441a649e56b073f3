package api

import (
	"net/http"

	"github.com/bharatvest/sim-engine/internal/model"
)

// ListInstruments handles GET /api/v1/market/instruments
func (s *Service) ListInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Instruments)
}

// ListIndices handles GET /api/v1/market/indices
func (s *Service) ListIndices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Indices)
}

// GetMovers handles GET /api/v1/market/movers
func (s *Service) GetMovers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Movers)
}

// GetMarketStatus handles GET /api/v1/market/status
// Returns the cached status from the last market-hours poll.
func (s *Service) GetMarketStatus(w http.ResponseWriter, r *http.Request) {
	var st model.MarketStatus
	if s.clock != nil {
		st = s.clock.Status()
	}
	writeJSON(w, http.StatusOK, st)
}

// GetWatchlist handles GET /api/v1/watchlist
func (s *Service) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Watchlist)
}
