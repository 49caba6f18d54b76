// cmd/catalog/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heritage/internal/catalog"
	"heritage/internal/platform/config"
	"heritage/internal/platform/observability"
	"heritage/internal/platform/server"
)

func main() {
	cfg, err := config.Load("catalog")
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

	src, origin := source(cfg.Catalog)
	logger.Info("catalog source selected", zap.String("origin", origin))

	svc := catalog.NewService(src, logger)
	router := chi.NewRouter()
	router.Use(observability.Middleware(logger)...)
	catalog.NewHandler(svc).Routes(router)

	logger.Info("starting catalog service", zap.String("port", cfg.Server.Port))
	if err := server.Serve(ctx, cfg.Server, router, logger); err != nil {
		logger.Fatal("catalog service stopped", zap.Error(err))
	}
}

func source(cfg config.CatalogConfig) (catalog.Source, string) {
	switch {
	case cfg.DataURL != "":
		return catalog.HTTPSource{BaseURL: cfg.DataURL, Client: http.DefaultClient}, cfg.DataURL
	case cfg.DataDir != "":
		return catalog.FSSource{FS: os.DirFS(cfg.DataDir)}, cfg.DataDir
	}
	return catalog.SampleSource(), "bundled sample"
}
