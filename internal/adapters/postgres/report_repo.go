package postgres

import (
	"context"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// ReportRepo implements ports.ReportRepository with pgx.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Insert stores a hazard report.
func (r *ReportRepo) Insert(ctx context.Context, rep *domain.Report) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO reports (id, report_type, latitude, longitude, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rep.ID, rep.ReportType, rep.Lat, rep.Lon, rep.Email, rep.CreatedAt)
	return err
}
