// cmd/planner/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heritage/internal/clients"
	"heritage/internal/planner"
	"heritage/internal/platform/config"
	"heritage/internal/platform/observability"
	"heritage/internal/platform/server"
	"heritage/internal/storage"
)

func main() {
	cfg, err := config.Load("planner")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Telemetry.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Fatal("setup tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	store, closeStore, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("open itinerary store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	metrics, err := planner.NewMetrics(nil)
	if err != nil {
		logger.Fatal("register planner metrics", zap.Error(err))
	}

	deps := planner.Deps{
		Bases: clients.NewCatalogClient(cfg.Planner.CatalogURL, clients.Options{Timeout: 5 * time.Second}),
		Places: clients.NewPlacesClient(cfg.Places.BaseURL, cfg.Places.APIKey, clients.Options{
			Timeout:   cfg.Places.Timeout,
			RateLimit: cfg.Places.RateLimit,
			Burst:     cfg.Places.Burst,
		}),
		Directions: clients.NewDirectionsClient(cfg.Directions.BaseURL, cfg.Directions.APIKey, clients.Options{
			Timeout:   cfg.Directions.Timeout,
			RateLimit: cfg.Directions.RateLimit,
			Burst:     cfg.Directions.Burst,
		}),
		Store:   store,
		Metrics: metrics,
		Logger:  logger,
	}
	opts := planner.Options{
		SearchRadius:  cfg.Planner.SearchRadius,
		MaxCandidates: cfg.Planner.MaxCandidates,
		StopMinutes:   cfg.Planner.DefaultMinutes,
		SearchTimeout: cfg.Planner.SearchTimeout,
		RouteTimeout:  cfg.Planner.RouteTimeout,
	}
	sessions := planner.NewSessions(deps, opts, cfg.Planner.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	router := chi.NewRouter()
	router.Use(observability.Middleware(logger)...)
	planner.NewHandler(sessions).Routes(router)

	logger.Info("starting planner service",
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("catalog", cfg.Planner.CatalogURL),
	)
	if err := server.Serve(ctx, cfg.Server, router, logger); err != nil {
		logger.Fatal("planner service stopped", zap.Error(err))
	}
}
