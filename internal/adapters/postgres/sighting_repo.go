package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
)

const sightingColumns = `id, type, species, description, image_url, email, latitude, longitude, created_at`

// SightingRepo implements ports.SightingRepository with pgx.
type SightingRepo struct {
	db *DB
}

// NewSightingRepo creates a new SightingRepo.
func NewSightingRepo(db *DB) *SightingRepo {
	return &SightingRepo{db: db}
}

// Insert stores a new sighting.
func (r *SightingRepo) Insert(ctx context.Context, s *domain.Sighting) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO sightings (id, type, species, description, image_url, email, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, string(s.Type), s.Species, s.Description, s.Image, s.Email,
		s.Location.Lat, s.Location.Lon, s.CreatedAt)
	return err
}

// GetByID returns a sighting by UUID.
func (r *SightingRepo) GetByID(ctx context.Context, id string) (*domain.Sighting, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE id = $1`, id)
	s, err := scanSighting(row)
	if err != nil {
		return nil, notFound(err, "sighting", id)
	}
	return s, nil
}

// List returns sightings matching f, newest first.
func (r *SightingRepo) List(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
	where, args := sightingWhere(f)
	q := `SELECT ` + sightingColumns + ` FROM sightings` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

// Count returns how many sightings match f, ignoring paging.
func (r *SightingRepo) Count(ctx context.Context, f ports.SightingFilter) (int, error) {
	where, args := sightingWhere(f)
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM sightings`+where, args...).Scan(&n)
	return n, err
}

// GetByIDs returns multiple sightings by UUID, in arbitrary order.
func (r *SightingRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Sighting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSightings(rows)
}

func sightingWhere(f ports.SightingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if b := f.Bounds; b != nil {
		args = append(args, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
		n := len(args)
		lonCond := "longitude BETWEEN $%d AND $%d"
		if b.WrapsLongitude() {
			lonCond = "(longitude >= $%d OR longitude <= $%d)"
		}
		conds = append(conds,
			fmt.Sprintf("latitude BETWEEN $%d AND $%d", n-3, n-2),
			fmt.Sprintf(lonCond, n-1, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSighting(row pgx.Row) (*domain.Sighting, error) {
	var (
		s   domain.Sighting
		typ string
	)
	if err := row.Scan(
		&s.ID, &typ, &s.Species, &s.Description, &s.Image, &s.Email,
		&s.Location.Lat, &s.Location.Lon, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Type = domain.Category(typ)
	return &s, nil
}

func collectSightings(rows pgx.Rows) ([]domain.Sighting, error) {
	var out []domain.Sighting
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
