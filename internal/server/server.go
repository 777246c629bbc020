// Package server exposes search, moment resolution, segment metrics and
// aggregation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/search"
)

const maxBodyBytes = 4 << 20

// Deps are the components the handlers call. Searcher may be nil when no
// search provider is configured.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Searcher *search.Searcher
	Preview  config.PreviewConfig
	Gatherer prometheus.Gatherer
}

// Server is the HTTP front end.
type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	logger *zap.Logger
	mux    *http.ServeMux
}

// New registers every route.
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("server"),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /moments/resolve", s.handleResolve)
	s.mux.HandleFunc("GET /segments/metrics", s.handleSegmentMetrics)
	s.mux.HandleFunc("GET /ws/metrics", s.handleSegmentMetricsWS)

	s.mux.HandleFunc("POST /aggregate", s.handleAggregate)
	s.mux.HandleFunc("POST /aggregate/csv", s.handleAggregateCSV)
	s.mux.HandleFunc("POST /aggregate/charts", s.handleAggregateCharts)
}

// Handler returns the routed handler wrapped in request-id and logging
// middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withLogging(s.logger, s.mux))
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped.")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
