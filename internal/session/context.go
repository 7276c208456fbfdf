package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// Keys the mobile app uses in secure storage.
const (
	TokenKey   = "sessionToken"
	ProfileKey = "userInfo"
)

// Context is the signed-in state passed to whatever needs it.
type Context struct {
	store Store

	mu      sync.RWMutex
	token   string
	profile *domain.UserProfile
}

// New returns a signed-out Context backed by store.
func New(store Store) *Context {
	return &Context{store: store}
}

// Load reads the stored token and profile and reports whether a user is
// signed in. An unreadable profile is dropped with a warning; the token
// alone still counts as signed in.
func (c *Context) Load(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	token, err := c.store.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		c.set("", nil)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session token: %w", err)
	}

	var profile *domain.UserProfile
	raw, err := c.store.Get(ProfileKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("load user info: %w", err)
	default:
		var p domain.UserProfile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			slog.WarnContext(ctx, "stored user info is unreadable", "error", err)
		} else {
			profile = &p
		}
	}

	c.set(token, profile)
	return token != "", nil
}

// Login stores a new session.
func (c *Context) Login(token string, profile domain.UserProfile) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	if err := c.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	if err := c.store.Set(ProfileKey, string(raw)); err != nil {
		return fmt.Errorf("store user info: %w", err)
	}
	c.set(token, &profile)
	return nil
}

// SetProfile replaces the stored profile, e.g. after favourites change.
func (c *Context) SetProfile(profile domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	if err := c.store.Set(ProfileKey, string(raw)); err != nil {
		return fmt.Errorf("store user info: %w", err)
	}
	c.mu.Lock()
	c.profile = &profile
	c.mu.Unlock()
	return nil
}

// Logout forgets the session, locally and in the store.
func (c *Context) Logout() error {
	c.set("", nil)
	if err := c.store.Delete(TokenKey); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	if err := c.store.Delete(ProfileKey); err != nil {
		return fmt.Errorf("delete user info: %w", err)
	}
	return nil
}

// Token returns the session token, "" when signed out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Profile returns a copy of the stored profile, nil when unknown.
func (c *Context) Profile() *domain.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	p.FavoriteSpecies = append([]string(nil), c.profile.FavoriteSpecies...)
	return &p
}

// Authenticated reports whether a session token is held.
func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

func (c *Context) set(token string, profile *domain.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.profile = profile
}
