package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
	"github.com/samirrijal/wildlens/internal/pkg/telemetry"
)

// DefaultSearchLimit is the number of results returned when none is requested.
const DefaultSearchLimit = 10

// SearchService ranks sightings by semantic similarity to free text.
type SearchService struct {
	sightings  ports.SightingRepository
	embeddings ports.EmbeddingRepository
	embedder   ports.Embedder
}

// NewSearchService creates a new SearchService. A nil embedder disables search.
func NewSearchService(sightings ports.SightingRepository, embeddings ports.EmbeddingRepository, embedder ports.Embedder) *SearchService {
	return &SearchService{sightings: sightings, embeddings: embeddings, embedder: embedder}
}

type scored struct {
	id    string
	score float64
}

// Enabled reports whether an embedder is configured.
func (s *SearchService) Enabled() bool { return s.embedder != nil }

// Search embeds query and returns the closest sightings, best first.
// An empty query yields an empty result.
func (s *SearchService) Search(ctx context.Context, query string, limit int) (_ []domain.SearchResult, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = DefaultSearchLimit
	}
	if s.embedder == nil {
		metrics.VectorSearches.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: vector search is not configured", domain.ErrUnavailable)
	}

	ctx, span := telemetry.StartSpan(ctx, "search.Search")
	defer func() { telemetry.End(span, err) }()

	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		metrics.VectorSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var top []scored
	err = s.embeddings.All(ctx, s.embedder.Model(), func(id string, v []float32) error {
		score, ok := cosineSimilarity(q, v)
		if !ok {
			return nil
		}
		top = insertTopK(top, scored{id: id, score: score}, limit)
		return nil
	})
	if err != nil {
		metrics.VectorSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}

	ids := make([]string, len(top))
	for i, t := range top {
		ids[i] = t.id
	}
	sightings, err := s.sightings.GetByIDs(ctx, ids)
	if err != nil {
		metrics.VectorSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load sightings: %w", err)
	}
	byID := make(map[string]domain.Sighting, len(sightings))
	for _, sg := range sightings {
		byID[sg.ID] = sg
	}

	results := make([]domain.SearchResult, 0, len(top))
	for _, t := range top {
		sg, ok := byID[t.id]
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			SightingID:   sg.ID,
			Species:      sg.Species,
			Type:         sg.Type,
			Image:        sg.Image,
			Description:  sg.Description,
			LocationName: sg.Location.Label(),
			CreatedAt:    sg.CreatedAt.UTC().Format(time.RFC3339),
			Score:        t.score,
		})
	}
	metrics.VectorSearches.WithLabelValues("ok").Inc()
	return results, nil
}

// Index embeds a sighting and stores its vector.
func (s *SearchService) Index(ctx context.Context, sg *domain.Sighting) error {
	if s.embedder == nil {
		return fmt.Errorf("%w: vector search is not configured", domain.ErrUnavailable)
	}
	v, err := s.embedder.Embed(ctx, IndexText(sg))
	if err != nil {
		metrics.SightingsIndexed.WithLabelValues("error").Inc()
		return fmt.Errorf("embed sighting %s: %w", sg.ID, err)
	}
	if err := s.embeddings.Upsert(ctx, sg.ID, s.embedder.Model(), v); err != nil {
		metrics.SightingsIndexed.WithLabelValues("error").Inc()
		return fmt.Errorf("store embedding %s: %w", sg.ID, err)
	}
	metrics.SightingsIndexed.WithLabelValues("ok").Inc()
	return nil
}

// IndexText is the text embedded for a sighting.
func IndexText(sg *domain.Sighting) string {
	text := fmt.Sprintf("%s (%s)", sg.Species, sg.Type)
	if d := strings.TrimSpace(sg.Description); d != "" {
		text += ": " + d
	}
	return text
}

// cosineSimilarity returns false for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// insertTopK keeps top sorted by descending score, at most k long.
func insertTopK(top []scored, s scored, k int) []scored {
	if len(top) == k && s.score <= top[k-1].score {
		return top
	}
	i := sort.Search(len(top), func(i int) bool { return top[i].score < s.score })
	top = append(top, scored{})
	copy(top[i+1:], top[i:])
	top[i] = s
	if len(top) > k {
		top = top[:k]
	}
	return top
}
