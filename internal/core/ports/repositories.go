package ports

import (
	"context"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// SightingFilter narrows a sighting listing. Zero values mean "any".
type SightingFilter struct {
	Type   domain.Category
	Bounds *domain.Bounds
	Offset int
	Limit  int
}

// SightingRepository persists sightings.
type SightingRepository interface {
	Insert(ctx context.Context, s *domain.Sighting) error
	GetByID(ctx context.Context, id string) (*domain.Sighting, error)
	// List returns sightings newest first.
	List(ctx context.Context, f SightingFilter) ([]domain.Sighting, error)
	Count(ctx context.Context, f SightingFilter) (int, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Sighting, error)
}

// UserRepository persists user profiles.
type UserRepository interface {
	Upsert(ctx context.Context, u *domain.UserProfile) error
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	IncrementContributions(ctx context.Context, email string) error
	SetFavorites(ctx context.Context, email string, favorites []string) error
	// ListByFavorite returns users whose favourites contain species exactly.
	ListByFavorite(ctx context.Context, species string) ([]domain.UserProfile, error)
}

// ReportRepository persists hazard reports.
type ReportRepository interface {
	Insert(ctx context.Context, r *domain.Report) error
}

// ImageStore persists sighting photos and serves them back.
type ImageStore interface {
	Put(ctx context.Context, img *domain.Image) error
	Get(ctx context.Context, id string) (*domain.Image, error)
}

// EmbeddingRepository persists sighting embeddings for semantic search.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, sightingID, model string, vector []float32) error
	// All streams every stored vector for the model to fn.
	All(ctx context.Context, model string, fn func(sightingID string, vector []float32) error) error
}
