// Package serve provides the serve command: the trigger server together
// with continuous sync.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/cmd/application"
	"github.com/modelshelf/modelshelf/internal/server"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		addr    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Run the trigger server and continuous sync",
		Long: `Serve exposes the trigger API and keeps syncing in the background.

  POST /v1/sync                  start a run now
  POST /v1/entries/{id}/delete   queue a delete
  POST /v1/entries/{id}/edit     queue an edit {"name", "tags", "new_id"}
  POST /v1/batch                 queue a batch {"operations": [...]}
  GET  /health
  GET  /metrics

Queued operations are applied at the start of the next run. When a
trigger token is configured the /v1 routes require it as a bearer token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			cfg := app.ServerConfig()
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			logger := app.Logger()
			ctx := cmd.Context()

			watchDone := make(chan error, 1)
			if noWatch {
				close(watchDone)
			} else {
				go func() {
					watchDone <- client.Watch(ctx, app.WatchOptions())
				}()
			}

			srv := server.New(cfg, client.Queue(), client, logger)
			err = srv.Run(ctx)
			if !noWatch && err != nil {
				// The watch loop only stops on cancellation.
				return err
			}
			if werr := <-watchDone; werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from LISTEN_ADDR or :8080)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "only queue operations, do not sync")
	return cmd
}
