package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parrot-hq/parrot/pkg/config"
)

// Handler returns an HTTP handler exposing the registered metrics in
// Prometheus exposition format.
func (cm *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		cm.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// Server serves the metrics endpoint on its own listener.
type Server struct {
	srv *http.Server
}

// NewServer builds a metrics server for the configured address and path.
func NewServer(cfg config.MetricsConfig, cm *ClientMetrics) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, cm.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the listener fails or Shutdown is called. It runs
// in its own goroutine and logs a failure instead of returning it,
// since a broken metrics endpoint must not take down the client.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err, "addr", s.srv.Addr)
		}
	}()
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
