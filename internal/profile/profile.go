// Package profile stores user profiles and sign-in records.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bharatvest/sim-engine/internal/store"
)

// MaxBioLength bounds Profile.Bio in characters.
const MaxBioLength = 500

var ErrInvalidProfile = errors.New("profile: invalid profile")

// Profile is the user-editable part of an account.
type Profile struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// Validate checks p before it is saved.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("%w: displayName is required", ErrInvalidProfile)
	}
	if utf8.RuneCountInString(p.Bio) > MaxBioLength {
		return fmt.Errorf("%w: bio exceeds %d characters", ErrInvalidProfile, MaxBioLength)
	}
	return nil
}

// Identity is what a sign-in provider reports about a user.
type Identity struct {
	ID                string `json:"id"`
	GoogleID          string `json:"googleId"`
	Email             string `json:"email"`
	DisplayName       string `json:"displayName"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// Service reads and writes profiles.
type Service struct {
	store store.Store
}

// NewService creates a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Save merges p into profiles/{uid}. Other fields of the document are kept.
func (s *Service) Save(ctx context.Context, uid string, p Profile) error {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.Upsert(ctx, store.Join("profiles", uid), map[string]any{
		"displayName": p.DisplayName,
		"bio":         p.Bio,
	}, true)
}

// Get returns the profile of uid, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, uid string) (Profile, error) {
	d, err := s.store.Get(ctx, store.Join("profiles", uid))
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := d.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile %s: %w", uid, err)
	}
	return p, nil
}

// RecordSignIn merges id into users/{id.ID}.
func (s *Service) RecordSignIn(ctx context.Context, id Identity) error {
	if strings.TrimSpace(id.ID) == "" {
		return fmt.Errorf("%w: identity id is required", ErrInvalidProfile)
	}
	fields, err := store.Encode(id)
	if err != nil {
		return err
	}
	return s.store.Upsert(ctx, store.Join("users", id.ID), fields, true)
}
