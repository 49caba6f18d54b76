// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"heritage/internal/gateway"
	"heritage/internal/platform/config"
	"heritage/internal/platform/observability"
	"heritage/internal/platform/server"
)

func main() {
	cfg, err := config.Load("api")
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

	router, err := gateway.New(cfg.Gateway, logger)
	if err != nil {
		logger.Fatal("build gateway", zap.Error(err))
	}

	logger.Info("API gateway listening",
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Gateway.CatalogURL),
		zap.String("planner", cfg.Gateway.PlannerURL),
	)
	if err := server.Serve(ctx, cfg.Server, router, logger); err != nil {
		logger.Fatal("API gateway stopped", zap.Error(err))
	}
}
