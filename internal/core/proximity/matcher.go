// Package proximity decides which recorded sightings should alert a user
// because they match one of the user's favourite species.
package proximity

import (
	"fmt"
	"strings"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/pkg/geospatial"
)

// Mode selects how geography affects matching.
type Mode string

const (
	// ModeLiteral matches favourites anywhere in the fetched sightings.
	ModeLiteral Mode = "literal"
	// ModeRadius only matches sightings within RadiusKm of the user.
	ModeRadius Mode = "radius"
)

// DefaultRadiusKm is the match radius used when none is configured.
const DefaultRadiusKm = 10.0

// ParseMode parses a configuration value; empty means literal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLiteral:
		return ModeLiteral, nil
	case ModeRadius:
		return ModeRadius, nil
	default:
		return "", fmt.Errorf("unknown proximity mode %q (want literal or radius)", s)
	}
}

// FindNearbyFavorites returns every sighting whose species is in favorites.
// Species comparison is exact and case-sensitive. Distance is not considered.
func FindNearbyFavorites(sightings []domain.Sighting, favorites []string) []domain.Sighting {
	if len(sightings) == 0 || len(favorites) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(favorites))
	for _, f := range favorites {
		wanted[f] = struct{}{}
	}

	var out []domain.Sighting
	for _, s := range sightings {
		if _, ok := wanted[s.Species]; ok {
			out = append(out, s)
		}
	}
	return out
}

// WithinRadius keeps the sightings at most radiusKm from origin and
// records the distance on each returned sighting.
func WithinRadius(origin domain.Coordinate, sightings []domain.Sighting, radiusKm float64) []domain.Sighting {
	var out []domain.Sighting
	for _, s := range sightings {
		d := geospatial.Distance(origin, s.Location)
		if d <= radiusKm {
			s.Distance = &d
			out = append(out, s)
		}
	}
	return out
}

// UniqueSpecies returns the distinct species labels in first-seen order.
func UniqueSpecies(sightings []domain.Sighting) []string {
	seen := make(map[string]struct{}, len(sightings))
	var out []string
	for _, s := range sightings {
		if _, ok := seen[s.Species]; ok {
			continue
		}
		seen[s.Species] = struct{}{}
		out = append(out, s.Species)
	}
	return out
}

// AlertMessage is the user-facing text for a set of matched species.
func AlertMessage(species []string) string {
	return fmt.Sprintf("You have favorite species nearby: %s. Check the map!", strings.Join(species, ", "))
}

// Match is the outcome of one matching pass.
type Match struct {
	Sightings []domain.Sighting `json:"sightings"`
	Species   []string          `json:"species"`
}

// Empty reports whether nothing matched.
func (m Match) Empty() bool { return len(m.Sightings) == 0 }

// Message returns the alert text, or "" when nothing matched.
func (m Match) Message() string {
	if m.Empty() {
		return ""
	}
	return AlertMessage(m.Species)
}

// Matcher applies the configured proximity mode.
type Matcher struct {
	Mode     Mode
	RadiusKm float64
}

// NewMatcher returns a matcher; a non-positive radius falls back to DefaultRadiusKm.
func NewMatcher(mode Mode, radiusKm float64) Matcher {
	if mode == "" {
		mode = ModeLiteral
	}
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return Matcher{Mode: mode, RadiusKm: radiusKm}
}

// Match runs one pass. In radius mode a nil origin matches nothing,
// since there is no position to measure from.
func (m Matcher) Match(origin *domain.Coordinate, sightings []domain.Sighting, favorites []string) Match {
	matched := FindNearbyFavorites(sightings, favorites)
	if m.Mode == ModeRadius {
		if origin == nil {
			return Match{}
		}
		radius := m.RadiusKm
		if radius <= 0 {
			radius = DefaultRadiusKm
		}
		matched = WithinRadius(*origin, matched, radius)
	}
	return Match{Sightings: matched, Species: UniqueSpecies(matched)}
}
