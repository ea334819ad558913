package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/harun/cheetah/internal/config"
	"github.com/harun/cheetah/internal/observability"
	"github.com/rs/zerolog"
)

// startMetricsServer serves /metrics until the returned stop func is called.
// It is a no-op when metrics are disabled.
func startMetricsServer(cfg config.MetricsConfig, logger zerolog.Logger) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
