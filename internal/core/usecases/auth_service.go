package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
)

// MaxFavorites caps the favourite species a user may keep.
const MaxFavorites = 50

// AuthResult is returned by a successful sign-in.
type AuthResult struct {
	SessionToken string              `json:"sessionToken"`
	User         *domain.UserProfile `json:"user"`
}

// AuthService signs users in with Google and manages their profiles.
type AuthService struct {
	verifier   ports.TokenVerifier
	users      ports.UserRepository
	sessions   ports.SessionStore
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(verifier ports.TokenVerifier, users ports.UserRepository, sessions ports.SessionStore, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	return &AuthService{verifier: verifier, users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// AuthGoogle exchanges a Google access token for a session.
func (s *AuthService) AuthGoogle(ctx context.Context, accessToken string) (*AuthResult, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}

	id, err := s.verifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if id.Email == "" || !id.EmailVerified {
		return nil, fmt.Errorf("%w: google account has no verified email", domain.ErrUnauthorized)
	}
	email := strings.ToLower(id.Email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		user = &domain.UserProfile{Email: email, FavoriteSpecies: []string{}}
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}
	user.Name = id.Name
	if user.Name == "" {
		user.Name = email
	}
	user.Picture = id.Picture
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		Email:     email,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResult{SessionToken: session.Token, User: user}, nil
}

// Authenticate resolves a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.UserProfile, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByEmail(ctx, session.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Logout revokes a session token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// UpdateFavorites replaces the user's favourite species and returns the
// updated profile.
func (s *AuthService) UpdateFavorites(ctx context.Context, email string, favorites []string) (*domain.UserProfile, error) {
	cleaned, err := NormalizeFavorites(favorites)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetFavorites(ctx, email, cleaned); err != nil {
		return nil, fmt.Errorf("set favorites: %w", err)
	}
	return s.users.GetByEmail(ctx, email)
}

// NormalizeFavorites trims and deduplicates species labels, preserving order.
// Case is kept: matching is exact.
func NormalizeFavorites(favorites []string) ([]string, error) {
	out := make([]string, 0, len(favorites))
	seen := make(map[string]struct{}, len(favorites))
	for _, f := range favorites {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) > MaxFavorites {
		return nil, fmt.Errorf("%w: at most %d favorite species", domain.ErrInvalidInput, MaxFavorites)
	}
	return out, nil
}
