package geospatial

import (
	"math"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used by all distance calculations.
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance in kilometres between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b domain.Coordinate) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BoundingBox returns a box around a point that contains every point within radiusKm.
// Near the antimeridian the longitude range wraps and minLon > maxLon; callers
// must treat such a box as two ranges (see domain.Bounds.Contains).
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusKm / 111.32
	minLat, maxLat = math.Max(lat-latDelta, -90), math.Min(lat+latDelta, 90)

	cos := math.Cos(toRad(lat))
	if cos <= 1e-9 || minLat == -90 || maxLat == 90 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := radiusKm / (111.32 * cos)
	if lonDelta >= 180 {
		return minLat, -180, maxLat, 180
	}

	return minLat, wrapLon(lon - lonDelta), maxLat, wrapLon(lon + lonDelta)
}

// wrapLon maps a longitude into [-180, 180].
func wrapLon(lon float64) float64 {
	switch {
	case lon > 180:
		return lon - 360
	case lon < -180:
		return lon + 360
	}
	return lon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
