// Package web provides the HTTP server for echo-service.
// It mounts the management API under /api and answers every other route from
// the dynamic endpoint table.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/echo-labs/echo-service/internal/store"
	"github.com/echo-labs/echo-service/internal/web/api"
	"github.com/echo-labs/echo-service/internal/web/echo"
)

// Server is the echo-service API server.
type Server struct {
	store   *store.SQLiteStore
	table   *echo.Table
	logger  *slog.Logger
	host    string
	port    int
	version string
}

// Config holds configuration for the server.
type Config struct {
	Store   *store.SQLiteStore
	Logger  *slog.Logger
	Host    string
	Port    int
	Version string
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		store:   cfg.Store,
		table:   echo.NewTable(),
		logger:  cfg.Logger,
		host:    cfg.Host,
		port:    cfg.Port,
		version: cfg.Version,
	}
}

// Handler builds the HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	h := api.NewHandlers(s.store, s.table, s.logger, s.version)
	r.Route("/api", h.Routes)

	// Everything outside /api is answered by the dynamic route table.
	r.NotFound(s.table.ServeHTTP)
	r.MethodNotAllowed(s.table.ServeHTTP)

	return r
}

// Hydrate loads the stored endpoints into the route table.
// Called on startup so registered routes survive restarts.
func (s *Server) Hydrate(ctx context.Context) error {
	endpoints, err := s.store.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to load endpoints: %w", err)
	}
	s.table.Load(endpoints)

	for _, ep := range endpoints {
		s.logger.Info("activated endpoint",
			"id", ep.ID, "verb", ep.Verb, "path", ep.Path, "code", ep.Code)
	}
	return nil
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Hydrate(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("starting API server", "addr", addr, "routes", s.table.Len())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
