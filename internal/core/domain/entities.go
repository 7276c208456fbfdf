package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is the kind of organism a sighting records.
type Category string

const (
	CategoryAnimal Category = "animal"
	CategoryBird   Category = "bird"
	CategoryPlant  Category = "plant"
	CategoryInsect Category = "insect"
)

// Categories lists every valid category.
var Categories = []Category{CategoryAnimal, CategoryBird, CategoryPlant, CategoryInsect}

// ParseCategory normalises s ("Bird", " plant ") into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
}

// Sighting is a recorded observation of a species at a location.
type Sighting struct {
	ID          string     `json:"id"`
	Type        Category   `json:"type"`
	Species     string     `json:"species"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image"`
	Email       string     `json:"email,omitempty"`
	Location    Coordinate `json:"-"`
	Distance    *float64   `json:"distance_km,omitempty"` // computed field
	CreatedAt   time.Time  `json:"created_at"`
}

type sightingJSON Sighting

// MarshalJSON flattens the location into latitude/longitude.
func (s Sighting) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		sightingJSON
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{sightingJSON(s), s.Location.Lat, s.Location.Lon})
}

// UnmarshalJSON accepts latitude/longitude as numbers or numeric strings.
func (s *Sighting) UnmarshalJSON(b []byte) error {
	var aux struct {
		sightingJSON
		Latitude  Degrees `json:"latitude"`
		Longitude Degrees `json:"longitude"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = Sighting(aux.sightingJSON)
	s.Location = Coordinate{Lat: float64(aux.Latitude), Lon: float64(aux.Longitude)}
	return nil
}

// Public returns a copy without the reporter's email.
func (s Sighting) Public() Sighting {
	s.Email = ""
	return s
}

// UserProfile is the account a session belongs to.
type UserProfile struct {
	Email              string   `json:"email"`
	Name               string   `json:"name"`
	Picture            string   `json:"picture,omitempty"`
	FavoriteSpecies    []string `json:"favoriteSpecies"`
	ContributionNumber int      `json:"contributionNumber"`
}

// Report flags a hazard or issue at a location.
type Report struct {
	ID         string `json:"id,omitempty"`
	ReportType string `json:"report_type"`
	Coordinate
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Analysis is the identification result for a photo.
type Analysis struct {
	Type        Category `json:"type"`
	Species     string   `json:"species"`
	Description string   `json:"description"`
}

// SpeciesItem aggregates the sightings of one species around a point.
type SpeciesItem struct {
	ID          string `json:"id"`
	Image       string `json:"image"`
	Species     string `json:"species"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`
	LatestTime  string `json:"latest_time"`
	Frequency   int    `json:"frequency"`
}

// SearchResult is a sighting ranked by semantic similarity to a query.
type SearchResult struct {
	SightingID   string   `json:"id"`
	Species      string   `json:"species"`
	Type         Category `json:"type"`
	Image        string   `json:"image"`
	Description  string   `json:"description"`
	LocationName string   `json:"location_name"`
	CreatedAt    string   `json:"created_at"`
	Score        float64  `json:"score"`
}

// Session is an issued login session.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GoogleIdentity is what Google reports for a verified access token.
type GoogleIdentity struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// FavoriteAlert tells a user that favourite species were sighted.
type FavoriteAlert struct {
	SightingID string     `json:"sighting_id"`
	Email      string     `json:"email"`
	Species    []string   `json:"species"`
	Message    string     `json:"message"`
	Sightings  []Sighting `json:"sightings"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Image is a stored sighting photo.
type Image struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
