package postgres

import (
	"context"
	"fmt"
)

// EmbeddingRepo implements ports.EmbeddingRepository with a real[] column.
type EmbeddingRepo struct {
	db *DB
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Upsert stores the vector of a sighting for a model.
func (r *EmbeddingRepo) Upsert(ctx context.Context, sightingID, model string, vector []float32) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO sighting_embeddings (sighting_id, model, vector)
		VALUES ($1, $2, $3)
		ON CONFLICT (sighting_id, model) DO UPDATE
		SET vector = EXCLUDED.vector, updated_at = now()
	`, sightingID, model, vector)
	return err
}

// All streams every vector stored for model to fn. Returning an error from fn
// stops the scan.
func (r *EmbeddingRepo) All(ctx context.Context, model string, fn func(sightingID string, vector []float32) error) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT sighting_id, vector FROM sighting_embeddings WHERE model = $1
	`, model)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     string
			vector []float32
		)
		if err := rows.Scan(&id, &vector); err != nil {
			return fmt.Errorf("scan embedding: %w", err)
		}
		if err := fn(id, vector); err != nil {
			return err
		}
	}
	return rows.Err()
}
