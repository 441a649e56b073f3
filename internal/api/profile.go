package api

import (
	"net/http"

	"github.com/bharatvest/sim-engine/internal/profile"
)

// GetProfile handles GET /api/v1/profile
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.Get(r.Context(), uid)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile handles PUT /api/v1/profile
func (s *Service) SaveProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var p profile.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.profiles.Save(r.Context(), uid, p); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignIn handles POST /api/v1/users/signin
// Records the identity reported by the sign-in provider.
func (s *Service) SignIn(w http.ResponseWriter, r *http.Request) {
	var id profile.Identity
	if !decodeBody(w, r, &id) {
		return
	}
	if err := s.profiles.RecordSignIn(r.Context(), id); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
