package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/proximity"
	"github.com/samirrijal/wildlens/internal/pkg/geospatial"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

// DefaultSpeciesRadiusKm bounds the species list when the caller gives no radius.
const DefaultSpeciesRadiusKm = 50.0

// SpeciesService aggregates sightings into per-species summaries.
type SpeciesService struct {
	sightings ports.SightingRepository
	cache     ports.CacheService
}

// NewSpeciesService creates a new SpeciesService.
func NewSpeciesService(sightings ports.SightingRepository, cache ports.CacheService) *SpeciesService {
	return &SpeciesService{sightings: sightings, cache: cache}
}

// ByType lists the species of one category sighted within radiusKm of origin,
// most frequently sighted first.
func (s *SpeciesService) ByType(ctx context.Context, category domain.Category, origin domain.Coordinate, radiusKm float64) ([]domain.SpeciesItem, error) {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return nil, err
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || radiusKm > 500 {
		radiusKm = DefaultSpeciesRadiusKm
	}

	cacheKey := fmt.Sprintf("species:%s:%.3f:%.3f:%.0f", category, origin.Lat, origin.Lon, radiusKm)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var items []domain.SpeciesItem
			if err := json.Unmarshal(data, &items); err == nil {
				metrics.CacheHits.WithLabelValues("species_by_type").Inc()
				return items, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("species_by_type").Inc()
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(origin.Lat, origin.Lon, radiusKm)
	candidates, err := s.sightings.List(ctx, ports.SightingFilter{
		Type:   category,
		Bounds: &domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon},
		Limit:  maxNearbyCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("list sightings: %w", err)
	}

	items := AggregateSpecies(proximity.WithinRadius(origin, candidates, radiusKm))

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return items, nil
}

// AggregateSpecies groups sightings by species. Each item carries the id,
// image, description and location of the most recent sighting.
func AggregateSpecies(sightings []domain.Sighting) []domain.SpeciesItem {
	type agg struct {
		latest domain.Sighting
		count  int
	}
	groups := make(map[string]*agg)
	for _, sg := range sightings {
		g, ok := groups[sg.Species]
		if !ok {
			groups[sg.Species] = &agg{latest: sg, count: 1}
			continue
		}
		g.count++
		if sg.CreatedAt.After(g.latest.CreatedAt) {
			g.latest = sg
		}
	}

	items := make([]domain.SpeciesItem, 0, len(groups))
	for species, g := range groups {
		items = append(items, domain.SpeciesItem{
			ID:          g.latest.ID,
			Image:       g.latest.Image,
			Species:     species,
			Description: g.latest.Description,
			Location:    g.latest.Location.Label(),
			LatestTime:  g.latest.CreatedAt.UTC().Format(time.RFC3339),
			Frequency:   g.count,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Frequency != items[j].Frequency {
			return items[i].Frequency > items[j].Frequency
		}
		return items[i].Species < items[j].Species
	})
	return items
}
