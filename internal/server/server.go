package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doubletap-dave/flashloan-engine/internal/server/handler"
	"github.com/doubletap-dave/flashloan-engine/internal/server/middleware"
	"github.com/doubletap-dave/flashloan-engine/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKeys maps API keys to caller addresses. When empty, authentication
	// is disabled and FallbackCaller is used for every request.
	APIKeys        map[string]string
	FallbackCaller common.Address
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Engine *handler.EngineHandler
	Events *handler.EventsHandler
}

// Server is the headless HTTP + WebSocket API for the flash-loan engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check and metrics (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Execution endpoints.
	mux.HandleFunc("POST /api/flashloan", handlers.Engine.Flashloan)
	mux.HandleFunc("POST /api/arbitrage", handlers.Engine.Arbitrage)

	// Control endpoints.
	mux.HandleFunc("POST /api/pause", handlers.Engine.Pause)
	mux.HandleFunc("POST /api/unpause", handlers.Engine.Unpause)
	mux.HandleFunc("PUT /api/threshold", handlers.Engine.SetThreshold)
	mux.HandleFunc("POST /api/withdraw", handlers.Engine.Withdraw)

	// Observability endpoints.
	mux.HandleFunc("GET /api/status", handlers.Engine.Status)
	mux.HandleFunc("GET /api/events", handlers.Events.Recent)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKeys, cfg.FallbackCaller)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
