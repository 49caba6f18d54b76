// cmd/chaos/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"heritage/internal/catalog"
	"heritage/internal/chaos"
	"heritage/internal/clients"
	"heritage/internal/planner"
	"heritage/internal/platform/config"
	"heritage/internal/platform/observability"
)

func main() {
	cfg, err := config.Load("chaos")
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

	opts := planner.Options{
		SearchRadius:  cfg.Planner.SearchRadius,
		MaxCandidates: cfg.Planner.MaxCandidates,
		StopMinutes:   cfg.Planner.DefaultMinutes,
		SearchTimeout: cfg.Planner.SearchTimeout,
		RouteTimeout:  cfg.Planner.RouteTimeout,
	}
	lab := newLab(cfg, opts, logger)
	lab.Duration = cfg.Chaos.Duration
	lab.Interval = cfg.Chaos.Interval

	engine := chaos.NewEngine(logger)
	engine.Register(lab.Experiments()...)

	day := chaos.GameDay{
		Name:      "Planner Resilience Game Day",
		Date:      time.Now(),
		Scenarios: engine.Experiments(),
		Pause:     cfg.Chaos.Pause,
	}
	results, err := engine.ExecuteGameDay(ctx, day)
	if err != nil {
		logger.Fatal("chaos game day interrupted", zap.Error(err))
	}

	held := 0
	for _, r := range results {
		if r.HypothesisHeld {
			held++
		}
	}
	logger.Info("chaos game day finished",
		zap.Int("experiments", len(day.Scenarios)),
		zap.Int("completed", len(results)),
		zap.Int("held", held),
	)
	if held != len(day.Scenarios) {
		logger.Sync()
		os.Exit(1)
	}
}

// newLab targets the live providers and catalog service when a maps key
// is configured, and simulated providers over the bundled catalog
// otherwise.
func newLab(cfg config.Config, opts planner.Options, logger *zap.Logger) *chaos.Lab {
	if cfg.Places.APIKey != "" {
		logger.Info("running against live providers", zap.String("catalog", cfg.Planner.CatalogURL))
		return chaos.NewLab(
			clients.NewCatalogClient(cfg.Planner.CatalogURL, clients.Options{Timeout: 5 * time.Second}),
			cfg.Chaos.BaseID,
			clients.NewPlacesClient(cfg.Places.BaseURL, cfg.Places.APIKey, clients.Options{
				Timeout:   cfg.Places.Timeout,
				RateLimit: cfg.Places.RateLimit,
				Burst:     cfg.Places.Burst,
			}),
			clients.NewDirectionsClient(cfg.Directions.BaseURL, cfg.Directions.APIKey, clients.Options{
				Timeout:   cfg.Directions.Timeout,
				RateLimit: cfg.Directions.RateLimit,
				Burst:     cfg.Directions.Burst,
			}),
			opts, logger,
		)
	}

	logger.Info("MAPS_API_KEY not set, running against simulated providers")
	svc := catalog.NewService(catalog.SampleSource(), logger)
	bases := planner.BaseLocatorFunc(func(ctx context.Context, id string) (planner.Base, error) {
		loc, err := svc.Base(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			return planner.Base{}, fmt.Errorf("%w: %w", planner.ErrBaseNotFound, err)
		}
		if err != nil {
			return planner.Base{}, err
		}
		return planner.Base{ID: loc.ID, Name: loc.Name, Location: planner.LatLng{Lat: loc.Lat, Lng: loc.Lng}}, nil
	})
	return chaos.NewLab(bases, cfg.Chaos.BaseID, chaos.SimPlaces{}, chaos.SimDirections{}, opts, logger)
}
