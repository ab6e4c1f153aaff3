package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var withDB bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve report previews and background exports over HTTP.

Endpoints:
  POST /api/exports              start an export job
  GET  /api/exports/{id}         job status and progress
  GET  /api/exports/{id}/file    download the finished file
  GET  /api/report?from=&to=     aggregated rows as JSON or CSV
  GET  /api/events?from=&to=     stored events (with --db)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			deps, err := BuildDependencies(cmd.Context(), cfg, withDB || needsDatabase(cfg))
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return NewApplication(deps).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withDB, "db", false, "Connect to Postgres and expose the stored events")
	return cmd
}
