package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/usecases"
)

func publicSightings(in []domain.Sighting) []domain.Sighting {
	out := make([]domain.Sighting, len(in))
	for i, s := range in {
		out[i] = s.Public()
	}
	return out
}

// ---- Legacy mobile routes ----

// GetSightingsHandler returns the recent sightings shown on the map.
func GetSightingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sightings, err := deps.Sightings.List(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"sightings": publicSightings(sightings)})
	}
}

// AnalyzeImageHandler identifies the species in a base64 photo.
func AnalyzeImageHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Image string `json:"image"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Image == "" {
			return errBadRequest(c, "image is required")
		}
		analysis, err := deps.Analysis.Analyze(c.UserContext(), req.Image)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"analysis": analysis})
	}
}

// SubmitSightingHandler stores a new sighting.
func SubmitSightingHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Image       string         `json:"image"`
		Latitude    domain.Degrees `json:"latitude"`
		Longitude   domain.Degrees `json:"longitude"`
		Email       string         `json:"email"`
		Type        string         `json:"type"`
		Species     string         `json:"species"`
		Description string         `json:"description"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sighting, err := deps.Sightings.Submit(c.UserContext(), usecases.SubmitSighting{
			Image:       req.Image,
			Latitude:    float64(req.Latitude),
			Longitude:   float64(req.Longitude),
			Email:       req.Email,
			Type:        req.Type,
			Species:     req.Species,
			Description: req.Description,
		})
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "Sighting submitted successfully",
			"sighting": sighting,
		})
	}
}

// SpeciesByTypeHandler lists the species of a category sighted near a point.
func SpeciesByTypeHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Type      string         `json:"type"`
		Latitude  domain.Degrees `json:"latitude"`
		Longitude domain.Degrees `json:"longitude"`
		RadiusKm  float64        `json:"radius_km"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		category, err := domain.ParseCategory(req.Type)
		if err != nil {
			return errFrom(c, err)
		}
		origin := domain.Coordinate{Lat: float64(req.Latitude), Lon: float64(req.Longitude)}
		items, err := deps.Species.ByType(c.UserContext(), category, origin, req.RadiusKm)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"species": items})
	}
}

// VectorSearchHandler runs a semantic search over sightings.
func VectorSearchHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Query) > 500 {
			return errBadRequest(c, "query too long (max 500 characters)")
		}
		results, err := deps.Search.Search(c.UserContext(), req.Query, req.Limit)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"results": results})
	}
}

// SubmitReportHandler records a hazard report.
func SubmitReportHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		ReportType string         `json:"report_type"`
		Latitude   domain.Degrees `json:"latitude"`
		Longitude  domain.Degrees `json:"longitude"`
		Email      string         `json:"email"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		report, err := deps.Reports.Submit(c.UserContext(), domain.Report{
			ReportType: req.ReportType,
			Coordinate: domain.Coordinate{Lat: float64(req.Latitude), Lon: float64(req.Longitude)},
			Email:      req.Email,
		})
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Report submitted successfully",
			"report":  report,
		})
	}
}

// AuthGoogleHandler exchanges a Google access token for a session.
func AuthGoogleHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Token string `json:"token"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		res, err := deps.Auth.AuthGoogle(c.UserContext(), req.Token)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(res)
	}
}

// ---- v1 routes ----

// ListSightingsHandler returns a page of sightings, optionally of one type.
func ListSightingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var category domain.Category
		if t := c.Query("type"); t != "" {
			parsed, err := domain.ParseCategory(t)
			if err != nil {
				return errFrom(c, err)
			}
			category = parsed
		}

		pg := pageFromQuery(c)
		sightings, total, err := deps.Sightings.ListPage(c.UserContext(), category, pg.Offset, pg.Limit)
		if err != nil {
			return errFrom(c, err)
		}

		pg.Total = total
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: publicSightings(sightings), Pagination: pg})
	}
}

// NearbySightingsHandler returns sightings within a radius of a point.
func NearbySightingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		origin := domain.Coordinate{Lat: c.QueryFloat("lat", 0), Lon: c.QueryFloat("lon", 0)}
		radius := c.QueryFloat("radius_km", 10)
		if radius <= 0 || radius > 500 {
			return errBadRequest(c, "radius_km must be between 0 and 500")
		}

		sightings, err := deps.Sightings.Nearby(c.UserContext(), origin, radius, c.QueryInt("limit", 50))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(publicSightings(sightings))
	}
}

// GetSightingHandler returns a single sighting by ID.
func GetSightingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "sighting id is required")
		}
		s, err := deps.Sightings.GetByID(c.UserContext(), id)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(s.Public())
	}
}

// ImageHandler serves a stored sighting photo.
func ImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		img, err := deps.Sightings.Image(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		c.Set(fiber.HeaderContentType, img.ContentType)
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		c.Set(fiber.HeaderETag, `"`+img.ID+`"`)
		return c.Send(img.Data)
	}
}

// MeHandler returns the signed-in user's profile.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(currentUser(c))
	}
}

// UpdateFavoritesHandler replaces the signed-in user's favourite species.
func UpdateFavoritesHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		FavoriteSpecies []string `json:"favoriteSpecies"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.FavoriteSpecies == nil {
			return errBadRequest(c, "favoriteSpecies is required")
		}
		user, err := deps.Auth.UpdateFavorites(c.UserContext(), currentUser(c).Email, req.FavoriteSpecies)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(user)
	}
}

// LogoutHandler revokes the caller's session.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Auth.Logout(c.UserContext(), bearerToken(c)); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
