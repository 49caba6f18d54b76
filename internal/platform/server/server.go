// internal/platform/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"heritage/internal/platform/config"
)

// Serve runs h until ctx is cancelled, then drains in-flight requests
// within cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg config.ServerConfig, h http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}
	return serve(ctx, ln, cfg, h, logger)
}

func serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("http server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		<-serverErr
		return nil
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}
}
