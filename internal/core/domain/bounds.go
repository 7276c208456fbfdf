package domain

// Bounds represents a geographic bounding box. A box that crosses the
// antimeridian has MinLon > MaxLon.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// WrapsLongitude reports whether the box crosses the antimeridian.
func (b Bounds) WrapsLongitude() bool {
	return b.MinLon > b.MaxLon
}

// Contains reports whether c lies inside the box.
func (b Bounds) Contains(c Coordinate) bool {
	if c.Lat < b.MinLat || c.Lat > b.MaxLat {
		return false
	}
	if b.WrapsLongitude() {
		return c.Lon >= b.MinLon || c.Lon <= b.MaxLon
	}
	return c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}
