package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	genaiadapter "github.com/samirrijal/wildlens/internal/adapters/genai"
	natsadapter "github.com/samirrijal/wildlens/internal/adapters/nats"
	"github.com/samirrijal/wildlens/internal/adapters/postgres"
	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/usecases"
	"github.com/samirrijal/wildlens/internal/pkg/config"
	"github.com/samirrijal/wildlens/internal/pkg/logging"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
	"github.com/samirrijal/wildlens/internal/pkg/telemetry"
)

// Durable consumer names on the SIGHTINGS stream.
const (
	durableIndexer = "indexer"
	durableAlerts  = "alerts"
)

func main() {
	cfg, err := config.Load("wildlens-indexer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("indexer failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	matcher, err := cfg.Proximity.Matcher()
	if err != nil {
		return fmt.Errorf("proximity: %w", err)
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	// NATS. Alerts are published back onto JetStream for the WebSocket relay.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats publisher: %w", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats subscriber: %w", err)
	}
	defer sub.Close()

	sightingRepo := postgres.NewSightingRepo(db)
	userRepo := postgres.NewUserRepo(db)
	alertSvc := usecases.NewAlertService(userRepo, pub, matcher)

	var searchSvc *usecases.SearchService
	if cfg.GenAI.APIKey != "" {
		gc, err := genaiadapter.NewClient(ctx, cfg.GenAI.APIKey)
		if err != nil {
			return fmt.Errorf("genai: %w", err)
		}
		embedder := genaiadapter.NewEmbedder(gc, cfg.GenAI.EmbeddingModel)
		searchSvc = usecases.NewSearchService(sightingRepo, postgres.NewEmbeddingRepo(db), embedder)
	} else {
		slog.Info("genai api key not set, embedding indexer disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	if searchSvc != nil {
		g.Go(func() error {
			return sub.SubscribeSightingsCreated(gctx, durableIndexer, func(ctx context.Context, sg *domain.Sighting) error {
				start := time.Now()
				if err := searchSvc.Index(ctx, sg); err != nil {
					return err
				}
				slog.Debug("sighting indexed", "sighting_id", sg.ID, "elapsed", time.Since(start))
				return nil
			})
		})
	}

	g.Go(func() error {
		return sub.SubscribeSightingsCreated(gctx, durableAlerts, func(ctx context.Context, sg *domain.Sighting) error {
			n, err := alertSvc.OnSightingCreated(ctx, sg)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("favorite alerts published", "sighting_id", sg.ID, "species", sg.Species, "alerts", n)
			}
			return nil
		})
	})

	// Pool gauges; also keeps the group alive until shutdown.
	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	})

	slog.Info("indexer started", "proximity_mode", matcher.Mode, "indexing", searchSvc != nil)

	err = g.Wait()
	slog.Info("indexer stopped")
	return err
}
