package app

import (
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/cmd/modelshelf/cmd/entries"
	"github.com/modelshelf/modelshelf/cmd/modelshelf/cmd/maintain"
	"github.com/modelshelf/modelshelf/cmd/modelshelf/cmd/run"
	"github.com/modelshelf/modelshelf/cmd/modelshelf/cmd/serve"
	"github.com/modelshelf/modelshelf/cmd/modelshelf/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(run.NewSyncCommand(a, a.config.RunContinuous))
	rootCmd.AddCommand(run.NewWatchCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(entries.NewListCommand(a))
	rootCmd.AddCommand(entries.NewDeleteCommand(a))
	rootCmd.AddCommand(entries.NewEditCommand(a))
	rootCmd.AddCommand(entries.NewApplyCommand(a))

	// Maintenance commands
	rootCmd.AddCommand(maintain.NewCollapseCommand(a))
	rootCmd.AddCommand(maintain.NewBackfillCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
