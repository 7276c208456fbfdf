package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

// ReportService records hazard reports.
type ReportService struct {
	reports   ports.ReportRepository
	publisher ports.EventPublisher
}

// NewReportService creates a new ReportService. publisher may be nil.
func NewReportService(reports ports.ReportRepository, publisher ports.EventPublisher) *ReportService {
	return &ReportService{reports: reports, publisher: publisher}
}

// Submit validates and stores a report, then announces it.
func (s *ReportService) Submit(ctx context.Context, r domain.Report) (*domain.Report, error) {
	r.ReportType = strings.TrimSpace(r.ReportType)
	if r.ReportType == "" {
		return nil, fmt.Errorf("%w: report_type is required", domain.ErrInvalidInput)
	}
	if err := r.Coordinate.Validate(); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	r.Email = email
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()

	if err := s.reports.Insert(ctx, &r); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	metrics.ReportsSubmitted.WithLabelValues(r.ReportType).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishReportCreated(ctx, &r); err != nil {
			slog.WarnContext(ctx, "publish report failed", "report_id", r.ID, "error", err)
		}
	}
	return &r, nil
}
