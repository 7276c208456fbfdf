package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	genaiadapter "github.com/samirrijal/wildlens/internal/adapters/genai"
	"github.com/samirrijal/wildlens/internal/adapters/google"
	"github.com/samirrijal/wildlens/internal/adapters/http"
	natsadapter "github.com/samirrijal/wildlens/internal/adapters/nats"
	"github.com/samirrijal/wildlens/internal/adapters/postgres"
	"github.com/samirrijal/wildlens/internal/adapters/valkey"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/usecases"
	"github.com/samirrijal/wildlens/internal/pkg/config"
	"github.com/samirrijal/wildlens/internal/pkg/logging"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
	"github.com/samirrijal/wildlens/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wildlens-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. Sessions live here, so unlike the sighting caches it is required.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Gemini
	var (
		analyzer ports.ImageAnalyzer
		embedder ports.Embedder
	)
	if cfg.GenAI.APIKey != "" {
		gc, err := genaiadapter.NewClient(ctx, cfg.GenAI.APIKey)
		if err != nil {
			slog.Warn("genai unavailable", "error", err)
		} else {
			analyzer = genaiadapter.NewAnalyzer(gc, cfg.GenAI.VisionModel)
			embedder = genaiadapter.NewEmbedder(gc, cfg.GenAI.EmbeddingModel)
		}
	} else {
		slog.Info("genai api key not set, image analysis and search disabled")
	}

	// Repos
	sightingRepo := postgres.NewSightingRepo(db)
	userRepo := postgres.NewUserRepo(db)
	reportRepo := postgres.NewReportRepo(db)
	imageRepo := postgres.NewImageRepo(db)
	embeddingRepo := postgres.NewEmbeddingRepo(db)

	verifier := google.NewVerifier(cfg.Google.UserInfoURL, &nethttp.Client{Timeout: 10 * time.Second})

	// Use cases
	sightingSvc := usecases.NewSightingService(sightingRepo, userRepo, imageRepo, cache, publisher, usecases.SightingConfig{
		ImageBaseURL:  cfg.Images.PublicBaseURL,
		MaxImageBytes: cfg.Images.MaxSizeMB << 20,
	})
	analysisSvc := usecases.NewAnalysisService(analyzer, cfg.Images.MaxSizeMB<<20)
	speciesSvc := usecases.NewSpeciesService(sightingRepo, cache)
	searchSvc := usecases.NewSearchService(sightingRepo, embeddingRepo, embedder)
	reportSvc := usecases.NewReportService(reportRepo, publisher)
	authSvc := usecases.NewAuthService(verifier, userRepo, cache.Sessions(), time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)

	deps := &http.Dependencies{
		Sightings:   sightingSvc,
		Analysis:    analysisSvc,
		Species:     speciesSvc,
		Search:      searchSvc,
		Reports:     reportSvc,
		Auth:        authSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
		OpenAPIPath: http.DefaultOpenAPIPath,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB << 20, // base64 images inflate by a third
		AppName:      "WildLens API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
