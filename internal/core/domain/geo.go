package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coordinate represents a geographic coordinate (WGS 84) in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate checks the coordinate is inside the WGS 84 range.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, c.Lon)
	}
	return nil
}

// Label formats the coordinate the way species listings display a location.
func (c Coordinate) Label() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}

// Region is a map viewport: a centre plus latitude/longitude deltas.
type Region struct {
	Center         Coordinate `json:"center"`
	LatitudeDelta  float64    `json:"latitude_delta"`
	LongitudeDelta float64    `json:"longitude_delta"`
}

// DefaultRegionDelta is the viewport span used when centring on the user.
const DefaultRegionDelta = 0.005

// RegionAround returns the default viewport centred on c.
func RegionAround(c Coordinate) Region {
	return Region{Center: c, LatitudeDelta: DefaultRegionDelta, LongitudeDelta: DefaultRegionDelta}
}

// Contains reports whether c falls inside the viewport.
func (r Region) Contains(c Coordinate) bool {
	return c.Lat >= r.Center.Lat-r.LatitudeDelta/2 && c.Lat <= r.Center.Lat+r.LatitudeDelta/2 &&
		c.Lon >= r.Center.Lon-r.LongitudeDelta/2 && c.Lon <= r.Center.Lon+r.LongitudeDelta/2
}

// Degrees is a float that also decodes from a numeric JSON string.
// Sightings stored by older clients carry "37.29623" instead of 37.29623.
type Degrees float64

// UnmarshalJSON accepts both 37.1 and "37.1".
func (d *Degrees) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*d = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		s = strings.TrimSpace(raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	*d = Degrees(f)
	return nil
}
