package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wildlens/internal/adapters/postgres"
	"github.com/samirrijal/wildlens/internal/adapters/valkey"
	"github.com/samirrijal/wildlens/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sightings *usecases.SightingService
	Analysis  *usecases.AnalysisService
	Species   *usecases.SpeciesService
	Search    *usecases.SearchService
	Reports   *usecases.ReportService
	Auth      *usecases.AuthService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache

	// OpenAPIPath locates the document served at /docs/openapi.yaml.
	OpenAPIPath string
}
