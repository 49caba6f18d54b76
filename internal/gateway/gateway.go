// Package gateway fronts the catalog and planner services under one
// /api/v1 prefix.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heritage/internal/platform/config"
	"heritage/internal/platform/httpx"
	"heritage/internal/platform/observability"
)

// Upstream prefixes.
const (
	CatalogPrefix = "/api/v1/catalog"
	PlannerPrefix = "/api/v1/planner"
)

// New returns the gateway router. Each prefix is stripped before the
// request is forwarded.
func New(cfg config.GatewayConfig, logger *zap.Logger) (http.Handler, error) {
	catalogProxy, err := newProxy("catalog", cfg.CatalogURL, logger)
	if err != nil {
		return nil, err
	}
	plannerProxy, err := newProxy("planner", cfg.PlannerURL, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(observability.Middleware(logger)...)

	r.Mount(CatalogPrefix, http.StripPrefix(CatalogPrefix, catalogProxy))
	r.Mount(PlannerPrefix, http.StripPrefix(PlannerPrefix, plannerProxy))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, httpx.NewError("not_found", "no such route", http.StatusNotFound))
	})
	return r, nil
}

func newProxy(name, rawURL string, logger *zap.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s upstream url: %w", name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s upstream url %q must be absolute", name, rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("upstream unavailable",
			zap.String("upstream", name),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httpx.WriteError(w, httpx.NewError("upstream_unavailable", name+" service is unavailable", http.StatusBadGateway).AsRetryable())
	}
	return proxy, nil
}
