// Package run provides the sync and watch commands.
package run

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/cmd/application"
	"github.com/modelshelf/modelshelf/internal/cmd/output"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(app application.Application, continuous bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Fold new channel posts into the catalog",
		Long: `Sync applies queued operations, reads every channel update since the
stored offset, updates the catalog and its mirror, and downloads the
preview images and files the catalog references.

With --continuous the run repeats until interrupted, like watch.`,
		Example: `  modelshelf sync
  modelshelf sync --continuous
  modelshelf sync -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			if continuous {
				return watch(cmd, app, client, app.WatchOptions())
			}
			res, err := client.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), res, func(bool) output.Data {
				return output.Sync(res)
			})
		},
	}
	cmd.Flags().BoolVar(&continuous, "continuous", continuous, "keep running until interrupted")
	return cmd
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(app application.Application) *cobra.Command {
	var (
		interval  time.Duration
		exitAfter time.Duration
	)
	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "core",
		Short:   "Run sync continuously",
		Long: `Watch runs sync, waits for the poll interval and repeats. Interrupting the
command lets the current run finish and schedules no further runs. With
--exit-after the loop stops after the first run that ends past the limit.`,
		Example: `  modelshelf watch
  modelshelf watch --interval 10s --exit-after 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			opts := app.WatchOptions()
			if cmd.Flags().Changed("interval") {
				opts.Interval = interval
			}
			if cmd.Flags().Changed("exit-after") {
				opts.MaxDuration = exitAfter
			}
			return watch(cmd, app, client, opts)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between runs (default from POLL_INTERVAL or 3s)")
	cmd.Flags().DurationVar(&exitAfter, "exit-after", 0, "stop after this much time, 0 runs forever")
	return cmd
}

func watch(cmd *cobra.Command, app application.Application, client modelshelf.Client, opts modelshelf.WatchOptions) error {
	logger := app.Logger()
	opts.OnRun = func(res *modelshelf.SyncResult, err error) {
		if err != nil || res == nil {
			return
		}
		ev := logger.Info().
			Str("run_id", res.RunID).
			Int("updates", res.Updates).
			Int("entries", res.Entries)
		if res.Reconcile != nil {
			ev = ev.Strs("created", res.Reconcile.Created()).Strs("updated", res.Reconcile.Updated())
		}
		ev.Msg("Run complete")
	}
	return client.Watch(cmd.Context(), opts)
}
