// Package maintain provides the catalog maintenance commands.
package maintain

import (
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/cmd/application"
	"github.com/modelshelf/modelshelf/internal/cmd/output"
)

// NewCollapseCommand creates the collapse command.
func NewCollapseCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "collapse",
		GroupID: "maintenance",
		Short:   "Remove duplicate catalog entries",
		Long: `Collapse folds entries that share a source message, a file or an id into
the one backed by the newest message, and deletes the local assets of ids
that disappear. Running it twice changes nothing the second time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			res, err := client.Collapse(cmd.Context())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), res, func(bool) output.Data {
				return collapseTable(res)
			})
		},
	}
}

// NewBackfillCommand creates the backfill command.
func NewBackfillCommand(app application.Application) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "backfill",
		GroupID: "maintenance",
		Short:   "Download missing images and files",
		Long: `Backfill downloads the preview image and file of every catalog entry
whose local copy is missing. The catalog itself is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			res, err := client.Materialize(cmd.Context())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), res, func(bool) output.Data {
				return output.Fetches(res.Assets, all)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also list assets that were already present")
	return cmd
}

func collapseTable(res *modelshelf.CollapseResult) output.Data {
	rows := make([][]string, 0, len(res.Removed))
	orphaned := make(map[string]bool, len(res.Orphaned))
	for _, id := range res.Orphaned {
		orphaned[id] = true
	}
	for _, e := range res.Removed {
		note := "duplicate"
		if orphaned[e.ID] {
			note = "orphaned"
		}
		rows = append(rows, []string{e.ID, e.Name, e.FileID, note})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "-", "-", "no duplicates"})
	}
	return output.Data{Headers: []string{"ID", "Name", "File", "Removed As"}, Rows: rows}
}
