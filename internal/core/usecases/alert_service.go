package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/proximity"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

// AlertService tells users when one of their favourite species is sighted.
type AlertService struct {
	users     ports.UserRepository
	publisher ports.EventPublisher
	matcher   proximity.Matcher
}

// NewAlertService creates a new AlertService.
func NewAlertService(users ports.UserRepository, publisher ports.EventPublisher, matcher proximity.Matcher) *AlertService {
	return &AlertService{users: users, publisher: publisher, matcher: matcher}
}

// OnSightingCreated publishes a FavoriteAlert to every user whose favourites
// contain the sighted species. It returns the number of alerts published.
// A failed publish does not stop the remaining users; the failures are
// returned together so the event is redelivered, and the publisher
// deduplicates alerts that already went out.
func (s *AlertService) OnSightingCreated(ctx context.Context, sg *domain.Sighting) (int, error) {
	users, err := s.users.ListByFavorite(ctx, sg.Species)
	if err != nil {
		return 0, fmt.Errorf("list users by favorite: %w", err)
	}

	// Users' positions are never sent to the server, so there is no origin
	// for radius matching here.
	matcher := s.matcher
	if matcher.Mode == proximity.ModeRadius {
		slog.DebugContext(ctx, "radius mode without user location, matching literally", "sighting_id", sg.ID)
		matcher.Mode = proximity.ModeLiteral
	}

	var (
		sent int
		errs []error
	)
	for _, u := range users {
		if u.Email == sg.Email {
			continue
		}
		m := matcher.Match(nil, []domain.Sighting{*sg}, u.FavoriteSpecies)
		if m.Empty() {
			continue
		}
		alert := &domain.FavoriteAlert{
			SightingID: sg.ID,
			Email:      u.Email,
			Species:    m.Species,
			Message:    m.Message(),
			Sightings:  publicSightings(m.Sightings),
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.publisher.PublishFavoriteAlert(ctx, alert); err != nil {
			slog.WarnContext(ctx, "publish favorite alert failed", "sighting_id", sg.ID, "email", u.Email, "error", err)
			errs = append(errs, fmt.Errorf("publish alert for %s: %w", u.Email, err))
			continue
		}
		metrics.FavoriteAlerts.Inc()
		sent++
	}
	return sent, errors.Join(errs...)
}

func publicSightings(in []domain.Sighting) []domain.Sighting {
	out := make([]domain.Sighting, len(in))
	for i, s := range in {
		out[i] = s.Public()
	}
	return out
}
