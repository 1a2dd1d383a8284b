package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/echo-labs/echo-service/internal/config"
	"github.com/echo-labs/echo-service/internal/store"
)

// NewEndpointsCommand creates the endpoints command group.
func NewEndpointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Inspect registered endpoints",
	}
	cmd.AddCommand(newEndpointsListCommand())
	return cmd
}

func newEndpointsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered endpoints",
		Long:  `List all endpoints registered in the database, in creation order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			s := store.NewSQLiteStore()
			if err := s.Open(cfg.DBFile); err != nil {
				return fmt.Errorf("failed to open database %s: %w", cfg.DBFile, err)
			}
			defer func() { _ = s.Close() }()

			if err := s.Migrate(); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			endpoints, err := s.ListEndpoints(cmd.Context())
			if err != nil {
				return err
			}

			if len(endpoints) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "(no endpoints registered)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "VERB", "PATH", "CODE", "HEADERS", "UPDATED"})

			for _, ep := range endpoints {
				t.AppendRow(table.Row{
					ep.ID,
					ep.Verb,
					ep.Path,
					ep.Code,
					formatHeaders(ep.Headers),
					ep.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			t.Render()

			return nil
		},
	}
}

func formatHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(headers))
	for name, value := range headers {
		pairs = append(pairs, name+": "+value)
	}
	return strings.Join(pairs, "\n")
}
