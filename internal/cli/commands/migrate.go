package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echo-labs/echo-service/internal/config"
	"github.com/echo-labs/echo-service/internal/store"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply all pending migrations to the SQLite database.

The serve command migrates automatically on startup; this command is for
preparing a database ahead of time or for use in deployment hooks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			s := store.NewSQLiteStore()
			if err := s.Open(cfg.DBFile); err != nil {
				return fmt.Errorf("failed to open database %s: %w", cfg.DBFile, err)
			}
			defer func() { _ = s.Close() }()

			if err := s.Migrate(); err != nil {
				return err
			}

			version, err := s.GetMigrationVersion()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database %s migrated to version %d\n", cfg.DBFile, version)
			return nil
		},
	}
}
