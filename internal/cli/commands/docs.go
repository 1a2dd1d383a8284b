package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echo-labs/echo-service/internal/config"
	"github.com/echo-labs/echo-service/internal/docs"
)

// DocsOptions holds options for the docs serve command.
type DocsOptions struct {
	Dir   string
	Port  int
	Watch bool
}

// NewDocsCommand creates the docs command group.
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Serve the documentation site",
	}
	cmd.AddCommand(newDocsServeCommand())
	return cmd
}

func newDocsServeCommand() *cobra.Command {
	opts := &DocsOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prebuilt documentation site",
		Long: `Serve a directory of prebuilt documentation over HTTP.

With --watch, connected browsers reload automatically when files in the
directory change.`,
		Example: `  # Serve the mounted docs directory
  echo-service docs serve --dir /docs

  # Serve with live reload during writing
  echo-service docs serve --dir ./site --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocsServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Docs directory to serve")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8001)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload browsers on file changes")

	return cmd
}

func runDocsServe(cmd *cobra.Command, opts *DocsOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())

	// CLI flags override config file values
	dir := cfg.DocsDir
	if opts.Dir != "" {
		dir = opts.Dir
	}
	if dir == "" {
		return fmt.Errorf("no docs directory: set --dir or docs_dir in the config")
	}

	port := cfg.DocsPort
	if opts.Port != 0 {
		port = opts.Port
	}

	server, err := docs.NewServer(docs.Config{
		Dir:    dir,
		Host:   cfg.Host,
		Port:   port,
		Watch:  opts.Watch,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}
