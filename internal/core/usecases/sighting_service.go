package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/proximity"
	"github.com/samirrijal/wildlens/internal/pkg/geospatial"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

const (
	// DefaultSightingLimit is the size of the map feed.
	DefaultSightingLimit = 200
	recentSightingsKey   = "sightings:recent"
	maxNearbyCandidates  = 2000
)

// SubmitSighting is the payload of a new sighting.
type SubmitSighting struct {
	Image       string  `json:"image"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Email       string  `json:"email"`
	Type        string  `json:"type"`
	Species     string  `json:"species"`
	Description string  `json:"description"`
}

// SightingConfig holds tunables for SightingService.
type SightingConfig struct {
	// ImageBaseURL prefixes /images/<id> in stored sightings.
	ImageBaseURL  string
	MaxImageBytes int
}

// SightingService handles sighting-related business logic.
type SightingService struct {
	sightings ports.SightingRepository
	users     ports.UserRepository
	images    ports.ImageStore
	cache     ports.CacheService
	publisher ports.EventPublisher
	cfg       SightingConfig
}

// NewSightingService creates a new SightingService. cache and publisher may be nil.
func NewSightingService(
	sightings ports.SightingRepository,
	users ports.UserRepository,
	images ports.ImageStore,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	cfg SightingConfig,
) *SightingService {
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	return &SightingService{
		sightings: sightings,
		users:     users,
		images:    images,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
	}
}

// List returns the most recent sightings, newest first.
func (s *SightingService) List(ctx context.Context, limit int) ([]domain.Sighting, error) {
	if limit <= 0 || limit > DefaultSightingLimit {
		limit = DefaultSightingLimit
	}

	// Only the default feed is cached; it is what every map load asks for.
	cacheable := limit == DefaultSightingLimit && s.cache != nil
	if cacheable {
		if data, err := s.cache.Get(ctx, recentSightingsKey); err == nil {
			var out []domain.Sighting
			if err := json.Unmarshal(data, &out); err == nil {
				metrics.CacheHits.WithLabelValues("sightings_recent").Inc()
				return out, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("sightings_recent").Inc()
	}

	out, err := s.sightings.List(ctx, ports.SightingFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list sightings: %w", err)
	}

	if cacheable {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, recentSightingsKey, data, 60)
		}
	}
	return out, nil
}

// ListPage returns one page of sightings, optionally of one category, and the total count.
func (s *SightingService) ListPage(ctx context.Context, category domain.Category, offset, limit int) ([]domain.Sighting, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	f := ports.SightingFilter{Type: category, Offset: offset, Limit: limit}

	total, err := s.sightings.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count sightings: %w", err)
	}
	out, err := s.sightings.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list sightings: %w", err)
	}
	return out, total, nil
}

// GetByID returns a single sighting.
func (s *SightingService) GetByID(ctx context.Context, id string) (*domain.Sighting, error) {
	return s.sightings.GetByID(ctx, id)
}

// Nearby returns sightings within radiusKm of origin, nearest first.
func (s *SightingService) Nearby(ctx context.Context, origin domain.Coordinate, radiusKm float64, limit int) ([]domain.Sighting, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || radiusKm > 500 {
		return nil, fmt.Errorf("%w: radius must be between 0 and 500 km", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(origin.Lat, origin.Lon, radiusKm)
	candidates, err := s.sightings.List(ctx, ports.SightingFilter{
		Bounds: &domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon},
		Limit:  maxNearbyCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := proximity.WithinRadius(origin, candidates, radiusKm)
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Submit validates and stores a new sighting with its photo.
func (s *SightingService) Submit(ctx context.Context, in SubmitSighting) (*domain.Sighting, error) {
	category, err := domain.ParseCategory(in.Type)
	if err != nil {
		return nil, err
	}
	loc := domain.Coordinate{Lat: in.Latitude, Lon: in.Longitude}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	species := strings.TrimSpace(in.Species)
	if species == "" {
		return nil, fmt.Errorf("%w: species is required", domain.ErrInvalidInput)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	data, mime, err := decodeImage(in.Image, s.cfg.MaxImageBytes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	img := &domain.Image{ID: uuid.NewString(), ContentType: mime, Data: data, CreatedAt: now}
	if err := s.images.Put(ctx, img); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	sighting := &domain.Sighting{
		ID:          uuid.NewString(),
		Type:        category,
		Species:     species,
		Description: strings.TrimSpace(in.Description),
		Image:       s.cfg.ImageBaseURL + "/images/" + img.ID,
		Email:       email,
		Location:    loc,
		CreatedAt:   now,
	}
	if err := s.sightings.Insert(ctx, sighting); err != nil {
		return nil, fmt.Errorf("insert sighting: %w", err)
	}
	metrics.SightingsSubmitted.WithLabelValues(string(category)).Inc()

	// Best-effort follow-ups; the sighting is already stored.
	if err := s.users.IncrementContributions(ctx, email); err != nil {
		slog.WarnContext(ctx, "increment contributions failed", "email", email, "error", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, recentSightingsKey)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSightingCreated(ctx, sighting); err != nil {
			slog.WarnContext(ctx, "publish sighting failed", "sighting_id", sighting.ID, "error", err)
		}
	}

	return sighting, nil
}

// Image returns a stored photo.
func (s *SightingService) Image(ctx context.Context, id string) (*domain.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	return s.images.Get(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, raw)
	}
	return strings.ToLower(addr.Address), nil
}
