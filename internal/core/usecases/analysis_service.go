package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
	"github.com/samirrijal/wildlens/internal/pkg/telemetry"
)

// AnalysisService identifies the species in an uploaded photo.
type AnalysisService struct {
	analyzer      ports.ImageAnalyzer
	maxImageBytes int
}

// NewAnalysisService creates a new AnalysisService. A nil analyzer makes
// every call fail with domain.ErrUnavailable.
func NewAnalysisService(analyzer ports.ImageAnalyzer, maxImageBytes int) *AnalysisService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &AnalysisService{analyzer: analyzer, maxImageBytes: maxImageBytes}
}

// Enabled reports whether an analyzer is configured.
func (s *AnalysisService) Enabled() bool { return s.analyzer != nil }

// Analyze decodes a base64 photo and asks the analyzer what it shows.
func (s *AnalysisService) Analyze(ctx context.Context, encoded string) (_ *domain.Analysis, err error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.Analyze")
	defer func() { telemetry.End(span, err) }()

	data, mime, err := decodeImage(encoded, s.maxImageBytes)
	if err != nil {
		metrics.ImageAnalyses.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if s.analyzer == nil {
		metrics.ImageAnalyses.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: image analysis is not configured", domain.ErrUnavailable)
	}

	start := time.Now()
	a, err := s.analyzer.Analyze(ctx, data, mime)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ImageAnalyses.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	metrics.ImageAnalyses.WithLabelValues("ok").Inc()
	return a, nil
}
