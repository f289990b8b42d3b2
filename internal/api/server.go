package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cortex/internal/api/health"
	"cortex/internal/events"
	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes.
// The websocket hub may be nil when live event streaming is disabled.
func NewServer(cfg ServerConfig, handlers *Handlers, healthHandler *health.Handler, hub *events.WebSocketHub, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Agent and workflow endpoints
	mux.HandleFunc("POST /api/chat", handlers.HandleChat)
	mux.HandleFunc("POST /api/workflows", handlers.HandleCreateWorkflow)
	mux.HandleFunc("GET /api/workflows", handlers.HandleListWorkflows)
	mux.HandleFunc("GET /api/workflows/{id}", handlers.HandleGetWorkflow)

	// Analyzer endpoints
	mux.HandleFunc("POST /api/analysis/risks", handlers.HandleRiskAnalysis)
	mux.HandleFunc("POST /api/analysis/sentiment", handlers.HandleSentimentAnalysis)
	mux.HandleFunc("GET /api/analysis/market", handlers.HandleMarketPulse)

	// Live workflow event stream
	if hub != nil {
		mux.HandleFunc("/api/events/ws", hub.ServeWS)
		log.Info("✓ WebSocket event stream registered at /api/events/ws")
	}

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
