package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// SessionStore implements ports.SessionStore. Sessions expire with their key.
type SessionStore struct {
	client valkey.Client
	prefix string
}

// Create stores a session for ttl.
func (s *SessionStore) Create(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Do(ctx,
		s.client.B().Set().Key(s.prefix+sess.Token).Value(valkey.BinaryString(data)).Ex(ttl).Build(),
	).Error()
}

// Get loads a session. Unknown or expired tokens are domain.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+token).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, fmt.Errorf("%w: session", domain.ErrNotFound)
		}
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete revokes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.prefix+token).Build()).Error()
}
