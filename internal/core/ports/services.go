package ports

import (
	"context"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSightingCreated(ctx context.Context, s *domain.Sighting) error
	PublishReportCreated(ctx context.Context, r *domain.Report) error
	PublishFavoriteAlert(ctx context.Context, alert *domain.FavoriteAlert) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSightingsCreated(ctx context.Context, durable string, handler func(ctx context.Context, s *domain.Sighting) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SessionStore keeps issued login sessions.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// ImageAnalyzer identifies the species in a photo.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*domain.Analysis, error)
}

// Embedder turns text into a vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// TokenVerifier resolves an OAuth access token to an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (*domain.GoogleIdentity, error)
}
