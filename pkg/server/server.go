// Package server provides the HTTP API for triggering and tracking
// export runs.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/export"
	"mercator-hq/europa/pkg/presets"
	"mercator-hq/europa/pkg/server/middleware"
	"mercator-hq/europa/pkg/telemetry/health"
	"mercator-hq/europa/pkg/telemetry/metrics"
	"mercator-hq/europa/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary on the /version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP API server for export runs.
type Server struct {
	config       *config.Config
	manager      *export.Manager
	collector    *metrics.Collector
	checker      *health.Checker
	tracer       *tracing.Tracer
	presets      *presets.Library
	build        BuildInfo
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new API server around the export manager.
// The collector may be nil when metrics are disabled; the checker may be
// nil, in which case a default one with no component checks is created.
func NewServer(cfg *config.Config, manager *export.Manager, collector *metrics.Collector, checker *health.Checker, build BuildInfo) *Server {
	if checker == nil {
		checker = health.New(0)
	}
	if build.Version == "" {
		build.Version = "dev"
	}
	return &Server{
		config:       cfg,
		manager:      manager,
		collector:    collector,
		checker:      checker,
		build:        build,
		shutdownChan: make(chan struct{}),
	}
}

// SetPresets attaches a preset library. Call before Start; submissions
// may then name presets and GET /v1/presets lists them.
func (s *Server) SetPresets(lib *presets.Library) {
	s.presets = lib
}

// SetTracer attaches the tracer. Call before Start; incoming traceparent
// headers then parent the run spans and responses echo the trace ID.
func (s *Server) SetTracer(t *tracing.Tracer) {
	s.tracer = t
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	// Create router with middleware chain
	handler := s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting export API server",
			"address", s.config.Server.ListenAddress,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server. In-flight requests get
// ShutdownTimeout to complete; export runs keep executing and belong to
// the manager, which the caller closes separately.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("export API server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Export run routes
	mux.HandleFunc("POST /v1/exports", s.handleSubmit)
	mux.HandleFunc("GET /v1/exports", s.handleList)
	mux.HandleFunc("GET /v1/exports/{id}", s.handleGet)
	mux.HandleFunc("DELETE /v1/exports/{id}", s.handleCancel)

	// Preset routes
	if s.presets != nil {
		mux.HandleFunc("GET /v1/presets", s.handlePresets)
	}

	// Health and version routes
	mux.HandleFunc("/health", s.checker.LivenessHandler())
	mux.HandleFunc("/ready", s.checker.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime))

	// Metrics scrape endpoint
	if s.collector != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.collector.Handler())
	}

	// Apply middleware chain
	var handler http.Handler = mux

	// Timeout middleware
	handler = middleware.TimeoutMiddleware(s.config.Server.WriteTimeout)(handler)

	// CORS middleware
	handler = middleware.CORSMiddleware(s.convertCORSConfig())(handler)

	// Trace propagation: a submission's traceparent parents the run span
	if s.tracer != nil && s.tracer.Enabled() {
		handler = tracing.HTTPMiddleware(handler)
	}

	// Metrics middleware
	if s.collector != nil {
		handler = middleware.MetricsMiddleware(s.collector)(handler)
	}

	// Request ID middleware
	handler = middleware.RequestIDMiddleware(handler)

	// Logging middleware
	handler = middleware.LoggingMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// convertCORSConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) convertCORSConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          s.config.Server.CORS.Enabled,
		AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
		AllowedMethods:   s.config.Server.CORS.AllowedMethods,
		AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
		ExposedHeaders:   s.config.Server.CORS.ExposedHeaders,
		MaxAge:           s.config.Server.CORS.MaxAge,
		AllowCredentials: s.config.Server.CORS.AllowCredentials,
	}
}
