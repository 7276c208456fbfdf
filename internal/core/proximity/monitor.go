package proximity

import (
	"sync"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// AlertFunc receives each non-empty match.
type AlertFunc func(Match)

// Monitor re-runs the matcher whenever sightings, the profile or the user's
// location change, once both sightings and favourites are known.
type Monitor struct {
	matcher Matcher
	alert   AlertFunc

	mu        sync.Mutex
	sightings []domain.Sighting
	favorites []string
	location  *domain.Coordinate
	last      Match
}

// NewMonitor creates a monitor that calls alert for every non-empty match.
func NewMonitor(m Matcher, alert AlertFunc) *Monitor {
	return &Monitor{matcher: m, alert: alert}
}

// SetSightings replaces the sightings snapshot.
func (mo *Monitor) SetSightings(s []domain.Sighting) {
	snapshot := append([]domain.Sighting(nil), s...)
	mo.update(func() { mo.sightings = snapshot })
}

// SetProfile replaces the favourites from the signed-in profile. A nil
// profile clears them.
func (mo *Monitor) SetProfile(p *domain.UserProfile) {
	var favs []string
	if p != nil {
		favs = append(favs, p.FavoriteSpecies...)
	}
	mo.update(func() { mo.favorites = favs })
}

// SetLocation records the user's latest position.
func (mo *Monitor) SetLocation(c domain.Coordinate) {
	mo.update(func() { mo.location = &c })
}

// Last returns the most recent match, empty if none has run.
func (mo *Monitor) Last() Match {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return mo.last
}

func (mo *Monitor) update(apply func()) {
	mo.mu.Lock()
	apply()
	if len(mo.sightings) == 0 || len(mo.favorites) == 0 {
		mo.mu.Unlock()
		return
	}
	var origin *domain.Coordinate
	if mo.location != nil {
		loc := *mo.location
		origin = &loc
	}
	m := mo.matcher.Match(origin, mo.sightings, mo.favorites)
	mo.last = m
	mo.mu.Unlock()

	if !m.Empty() && mo.alert != nil {
		mo.alert(m)
	}
}
