package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echo-labs/echo-service/internal/config"
	"github.com/echo-labs/echo-service/internal/store"
	"github.com/echo-labs/echo-service/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the echo-service API server",
		Long: `Start the HTTP API server.

The server exposes the endpoint management API under /api and answers every
other route from the registered endpoints. Pending database migrations are
applied on startup.`,
		Example: `  # Serve on the default port with the default database file
  echo-service serve

  # Bind all interfaces and use the mounted volume
  echo-service serve --host 0.0.0.0 --db /db_data/db.sqlite3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}
}

func runServe(cmd *cobra.Command, version string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())

	s := store.NewSQLiteStore()
	if err := s.Open(cfg.DBFile); err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DBFile, err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	server := web.NewServer(web.Config{
		Store:   s,
		Logger:  logger,
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: cfg.ResolveVersion(version),
	})

	logger.Info("echo-service starting",
		"version", cfg.ResolveVersion(version),
		"environment", cfg.Environment,
		"db", cfg.DBFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}
