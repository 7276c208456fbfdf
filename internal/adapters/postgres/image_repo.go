package postgres

import (
	"context"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// ImageRepo implements ports.ImageStore in a bytea table.
type ImageRepo struct {
	db *DB
}

// NewImageRepo creates a new ImageRepo.
func NewImageRepo(db *DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// Put stores a photo.
func (r *ImageRepo) Put(ctx context.Context, img *domain.Image) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO images (id, content_type, data, created_at) VALUES ($1, $2, $3, $4)
	`, img.ID, img.ContentType, img.Data, img.CreatedAt)
	return err
}

// Get returns a stored photo.
func (r *ImageRepo) Get(ctx context.Context, id string) (*domain.Image, error) {
	var img domain.Image
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, content_type, data, created_at FROM images WHERE id = $1
	`, id).Scan(&img.ID, &img.ContentType, &img.Data, &img.CreatedAt)
	if err != nil {
		return nil, notFound(err, "image", id)
	}
	return &img, nil
}
