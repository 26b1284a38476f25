// Package app provides the top-level application lifecycle for the flash-loan
// engine daemon. It wires together all dependencies (ledger, lending pool,
// venues, engine, event sinks, notifications) and runs the operator HTTP API
// until the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doubletap-dave/flashloan-engine/internal/config"
	"github.com/doubletap-dave/flashloan-engine/internal/server"
	"github.com/doubletap-dave/flashloan-engine/internal/server/handler"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the operator
// API, and blocks until the context is cancelled. On return it runs all
// registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.logger.InfoContext(ctx, "starting application",
		slog.String("network", a.cfg.Network),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		srv := a.newServer(deps)

		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	} else {
		// Headless: nothing to serve, just hold until cancelled.
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	a.logger.InfoContext(ctx, "application started",
		slog.Bool("server", a.cfg.Server.Enabled),
		slog.Int("venues", len(deps.Venues)),
	)

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// newServer builds the operator API server from wired dependencies.
func (a *App) newServer(deps *Dependencies) *server.Server {
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Engine: handler.NewEngineHandler(deps.Engine, a.logger),
		Events: handler.NewEventsHandler(deps.Events, a.logger),
	}
	return server.NewServer(server.Config{
		Port:           a.cfg.Server.Port,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		APIKeys:        a.cfg.Server.APIKeys,
		FallbackCaller: deps.Engine.Owner(),
	}, handlers, deps.WSHub, a.logger)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
