package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by /v1/health; set with -ldflags at build time.
var Version = "dev"

// probe is one readiness check. required probes fail the whole check.
type probe struct {
	name     string
	required bool
	run      func(ctx context.Context) string
}

const probeOK = "ok"

// HealthHandler returns liveness plus which optional features are on.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": Version,
			"features": fiber.Map{
				"analysis": deps.Analysis != nil && deps.Analysis.Enabled(),
				"search":   deps.Search != nil && deps.Search.Enabled(),
				"realtime": deps.NATS != nil,
			},
		})
	}
}

func readinessProbes(deps *Dependencies) []probe {
	return []probe{
		{name: "database", required: true, run: func(ctx context.Context) string {
			if deps.DB == nil {
				return "not configured"
			}
			if err := deps.DB.Ping(ctx); err != nil {
				return "error: " + err.Error()
			}
			return probeOK
		}},
		{name: "nats", run: func(ctx context.Context) string {
			switch {
			case deps.NATS == nil:
				return "not configured"
			case !deps.NATS.IsConnected():
				return "disconnected"
			}
			return probeOK
		}},
		{name: "cache", run: func(ctx context.Context) string {
			if deps.Cache == nil {
				return "not configured"
			}
			if err := deps.Cache.Ping(ctx); err != nil {
				return "error: " + err.Error()
			}
			return probeOK
		}},
	}
}

// ReadyHandler runs the readiness probes. Only the database is required;
// without NATS or Valkey the affected features degrade instead.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			res := p.run(ctx)
			checks[p.name] = res
			if p.required && res != probeOK {
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
