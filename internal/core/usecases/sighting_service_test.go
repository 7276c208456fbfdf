package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/usecases"
)

func validSubmission() usecases.SubmitSighting {
	return usecases.SubmitSighting{
		Image:       pngBase64,
		Latitude:    37.3352,
		Longitude:   -121.8811,
		Email:       "ana@example.com",
		Type:        "Animal",
		Species:     "  Red Fox ",
		Description: "crossing the path",
	}
}

func TestSightingService_Submit(t *testing.T) {
	var inserted *domain.Sighting
	repo := &mockSightingRepo{
		insertFn: func(ctx context.Context, s *domain.Sighting) error {
			inserted = s
			return nil
		},
	}
	var incremented string
	users := &mockUserRepo{
		incrementFn: func(ctx context.Context, email string) error {
			incremented = email
			return nil
		},
	}
	images := &mockImageStore{}
	cache := newMockCache()
	pub := &mockPublisher{}

	svc := usecases.NewSightingService(repo, users, images, cache, pub, usecases.SightingConfig{ImageBaseURL: "http://10.0.0.5:9874/"})
	s, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inserted == nil || inserted.ID != s.ID {
		t.Fatal("sighting was not inserted")
	}
	if s.Type != domain.CategoryAnimal {
		t.Errorf("expected type animal, got %s", s.Type)
	}
	if s.Species != "Red Fox" {
		t.Errorf("expected trimmed species, got %q", s.Species)
	}
	if !strings.HasPrefix(s.Image, "http://10.0.0.5:9874/images/") {
		t.Errorf("unexpected image url %q", s.Image)
	}
	id := strings.TrimPrefix(s.Image, "http://10.0.0.5:9874/images/")
	img, err := images.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("image not stored: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("expected image/png, got %s", img.ContentType)
	}
	if incremented != "ana@example.com" {
		t.Errorf("expected contribution increment for reporter, got %q", incremented)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "sightings:recent" {
		t.Errorf("expected recent cache invalidation, got %v", cache.deleted)
	}
	if len(pub.sightings) != 1 {
		t.Errorf("expected one published event, got %d", len(pub.sightings))
	}
}

func TestSightingService_Submit_SideEffectsBestEffort(t *testing.T) {
	users := &mockUserRepo{
		incrementFn: func(ctx context.Context, email string) error { return errors.New("db down") },
	}
	pub := &mockPublisher{err: errors.New("nats down")}

	svc := usecases.NewSightingService(&mockSightingRepo{}, users, &mockImageStore{}, nil, pub, usecases.SightingConfig{})
	if _, err := svc.Submit(context.Background(), validSubmission()); err != nil {
		t.Fatalf("side-effect failures must not fail submit: %v", err)
	}
}

func TestSightingService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*usecases.SubmitSighting)
	}{
		{"unknown type", func(s *usecases.SubmitSighting) { s.Type = "fungus" }},
		{"latitude out of range", func(s *usecases.SubmitSighting) { s.Latitude = 91 }},
		{"longitude out of range", func(s *usecases.SubmitSighting) { s.Longitude = -181 }},
		{"empty species", func(s *usecases.SubmitSighting) { s.Species = " " }},
		{"bad email", func(s *usecases.SubmitSighting) { s.Email = "not-an-email" }},
		{"missing image", func(s *usecases.SubmitSighting) { s.Image = "" }},
		{"not an image", func(s *usecases.SubmitSighting) { s.Image = "aGVsbG8gd29ybGQ=" }},
		{"not base64", func(s *usecases.SubmitSighting) { s.Image = "%%%" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSightingRepo{
				insertFn: func(ctx context.Context, s *domain.Sighting) error {
					t.Error("insert must not be called")
					return nil
				},
			}
			svc := usecases.NewSightingService(repo, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})
			in := validSubmission()
			tt.mutate(&in)
			_, err := svc.Submit(context.Background(), in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSightingService_Submit_ImageTooLarge(t *testing.T) {
	svc := usecases.NewSightingService(&mockSightingRepo{}, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{MaxImageBytes: 8})
	_, err := svc.Submit(context.Background(), validSubmission())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSightingService_List_Cached(t *testing.T) {
	calls := 0
	repo := &mockSightingRepo{
		listFn: func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
			calls++
			if f.Limit != usecases.DefaultSightingLimit {
				t.Errorf("expected default limit, got %d", f.Limit)
			}
			return []domain.Sighting{{ID: "1", Species: "Red Fox", Type: domain.CategoryAnimal}}, nil
		},
	}
	svc := usecases.NewSightingService(repo, &mockUserRepo{}, &mockImageStore{}, newMockCache(), nil, usecases.SightingConfig{})

	for i := 0; i < 2; i++ {
		out, err := svc.List(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 || out[0].Species != "Red Fox" {
			t.Fatalf("unexpected sightings %+v", out)
		}
	}
	if calls != 1 {
		t.Errorf("expected repo called once, got %d", calls)
	}
}

func TestSightingService_ListPage(t *testing.T) {
	repo := &mockSightingRepo{
		countFn: func(ctx context.Context, f ports.SightingFilter) (int, error) { return 120, nil },
		listFn: func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
			if f.Type != domain.CategoryBird || f.Offset != 50 || f.Limit != 50 {
				t.Errorf("unexpected filter %+v", f)
			}
			return []domain.Sighting{{ID: "b1"}}, nil
		},
	}
	svc := usecases.NewSightingService(repo, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})
	out, total, err := svc.ListPage(context.Background(), domain.CategoryBird, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 120 || len(out) != 1 {
		t.Errorf("expected total 120 and one item, got %d/%d", total, len(out))
	}
}

func TestSightingService_Nearby_SortedByDistance(t *testing.T) {
	origin := domain.Coordinate{Lat: 37.3352, Lon: -121.8811}
	repo := &mockSightingRepo{
		listFn: func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
			if f.Bounds == nil {
				t.Fatal("expected a bounding box prefilter")
			}
			return []domain.Sighting{
				{ID: "far", Location: domain.Coordinate{Lat: 37.40, Lon: -121.88}, CreatedAt: time.Now()},
				{ID: "near", Location: domain.Coordinate{Lat: 37.336, Lon: -121.881}, CreatedAt: time.Now()},
				{ID: "outside", Location: domain.Coordinate{Lat: 38.5, Lon: -121.88}, CreatedAt: time.Now()},
			}, nil
		},
	}
	svc := usecases.NewSightingService(repo, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})

	out, err := svc.Nearby(context.Background(), origin, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 sightings, got %d", len(out))
	}
	if out[0].ID != "near" || out[1].ID != "far" {
		t.Errorf("expected near before far, got %s, %s", out[0].ID, out[1].ID)
	}
	if out[0].Distance == nil || *out[0].Distance > 0.2 {
		t.Errorf("expected distance attached, got %v", out[0].Distance)
	}
}

func TestSightingService_Nearby_AcrossAntimeridian(t *testing.T) {
	origin := domain.Coordinate{Lat: -17.0, Lon: 179.99}
	all := []domain.Sighting{
		{ID: "west", Location: domain.Coordinate{Lat: -17.0, Lon: -179.98}, CreatedAt: time.Now()},
		{ID: "east", Location: domain.Coordinate{Lat: -17.0, Lon: 179.97}, CreatedAt: time.Now()},
		{ID: "greenwich", Location: domain.Coordinate{Lat: -17.0, Lon: 0}, CreatedAt: time.Now()},
	}
	repo := &mockSightingRepo{
		listFn: func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
			var out []domain.Sighting
			for _, sg := range all {
				if f.Bounds.Contains(sg.Location) {
					out = append(out, sg)
				}
			}
			return out, nil
		},
	}
	svc := usecases.NewSightingService(repo, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})

	out, err := svc.Nearby(context.Background(), origin, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 sightings, got %d", len(out))
	}
	if out[0].ID != "east" || out[1].ID != "west" {
		t.Errorf("expected east then west, got %s, %s", out[0].ID, out[1].ID)
	}
}

func TestSightingService_Nearby_InvalidInput(t *testing.T) {
	svc := usecases.NewSightingService(&mockSightingRepo{}, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})
	if _, err := svc.Nearby(context.Background(), domain.Coordinate{Lat: 100}, 10, 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad coordinate, got %v", err)
	}
	if _, err := svc.Nearby(context.Background(), domain.Coordinate{}, 0, 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero radius, got %v", err)
	}
}

func TestSightingService_Image_UnknownID(t *testing.T) {
	svc := usecases.NewSightingService(&mockSightingRepo{}, &mockUserRepo{}, &mockImageStore{}, nil, nil, usecases.SightingConfig{})
	if _, err := svc.Image(context.Background(), "../etc/passwd"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
