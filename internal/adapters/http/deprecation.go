package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LegacyRoute is a route kept for the mobile client that has a v1 successor.
type LegacyRoute struct {
	Path       string    // Exact request path
	Successor  string    // Recommended v1 endpoint
	SunsetDate time.Time // Zero when no removal date is scheduled
}

// LegacyRoutes maps the mobile routes onto their v1 counterparts.
var LegacyRoutes = []LegacyRoute{
	{Path: "/get-sightings", Successor: "/v1/sightings"},
}

// DeprecationMiddleware adds Deprecation, Sunset and Link headers to legacy
// routes so clients can discover the v1 API.
func DeprecationMiddleware(routes []LegacyRoute) fiber.Handler {
	byPath := make(map[string]LegacyRoute, len(routes))
	for _, r := range routes {
		byPath[r.Path] = r
	}

	return func(c *fiber.Ctx) error {
		d, ok := byPath[c.Path()]
		if !ok {
			return c.Next()
		}

		// RFC 8594 Deprecation header
		c.Set("Deprecation", "true")
		if d.Successor != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Successor))
		}
		if !d.SunsetDate.IsZero() {
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
		}
		return c.Next()
	}
}
