package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

const (
	requestTimeout  = 15 * time.Second
	analysisTimeout = 60 * time.Second
)

// SetupRoutes registers the mobile, REST, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Successor links on legacy routes
	app.Use(DeprecationMiddleware(LegacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Mobile client routes
	app.Get("/get-sightings", timeout.NewWithContext(GetSightingsHandler(deps), requestTimeout))
	app.Post("/analyze-image", timeout.NewWithContext(AnalyzeImageHandler(deps), analysisTimeout))
	app.Post("/submit-sighting", timeout.NewWithContext(SubmitSightingHandler(deps), requestTimeout))
	app.Post("/get-species-by-type", timeout.NewWithContext(SpeciesByTypeHandler(deps), requestTimeout))
	app.Post("/vector-search", timeout.NewWithContext(VectorSearchHandler(deps), requestTimeout))
	app.Post("/submit-report", timeout.NewWithContext(SubmitReportHandler(deps), requestTimeout))
	app.Post("/auth/google", timeout.NewWithContext(AuthGoogleHandler(deps), requestTimeout))

	// Photos
	app.Get("/images/:id", timeout.NewWithContext(ImageHandler(deps), requestTimeout))

	// REST API v1
	v1 := app.Group("/v1")
	v1.Get("/sightings", timeout.NewWithContext(ListSightingsHandler(deps), requestTimeout))
	v1.Get("/sightings/nearby", timeout.NewWithContext(NearbySightingsHandler(deps), requestTimeout))
	v1.Get("/sightings/:id", timeout.NewWithContext(GetSightingHandler(deps), requestTimeout))

	// Session-bound routes
	v1.Get("/me", RequireSession(deps), MeHandler())
	v1.Put("/me/favorites", RequireSession(deps), timeout.NewWithContext(UpdateFavoritesHandler(deps), requestTimeout))
	v1.Post("/auth/logout", RequireSession(deps), timeout.NewWithContext(LogoutHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIPath)

	// WebSocket: favourite alerts for the session's user
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, RequireSocketSession(deps))
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
