// Package entries provides the commands that read and change catalog
// entries.
package entries

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/cmd/application"
	"github.com/modelshelf/modelshelf/internal/cmd/output"
	"github.com/modelshelf/modelshelf/pkg/caption"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/ops"
)

// NewListCommand creates the list command.
func NewListCommand(app application.Application) *cobra.Command {
	var (
		tag    string
		search string
	)
	cmd := &cobra.Command{
		Use:     "list [id]",
		GroupID: "core",
		Short:   "List catalog entries",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeIDs(app),
		Example: `  modelshelf list
  modelshelf list fox
  modelshelf list --tag anime -o wide`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			cat, err := client.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				e, ok := cat.Find(args[0])
				if !ok {
					return pkgerrors.NewNotFoundError("entry", args[0])
				}
				return output.Render(cmd.OutOrStdout(), app.OutputFormat(), e, nil)
			}

			list := filter(cat.Entries(), tag, search)
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), list, func(wide bool) output.Data {
				return output.Entries(list, wide)
			})
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only entries carrying this tag")
	cmd.Flags().StringVar(&search, "search", "", "only entries whose id or name contains this text")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(app application.Application) *cobra.Command {
	var queue bool
	cmd := &cobra.Command{
		Use:     "delete <id-or-name>",
		GroupID: "core",
		Short:   "Delete an entry and retire its channel messages",
		Long: `Delete removes the entry whose id, or else whose name, matches the
argument. Its image and file are deleted and its document and photo
messages are removed from the channel.

With --queue the operation is stored and applied by the next sync run.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeIDs(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, queue, []ops.Op{ops.Delete(args[0])})
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "queue for the next sync run instead of applying now")
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(app application.Application) *cobra.Command {
	var (
		name  string
		tags  string
		newID string
		queue bool
	)
	cmd := &cobra.Command{
		Use:     "edit <id>",
		GroupID: "core",
		Short:   "Rename or retag an entry",
		Long: `Edit sets the display name of an entry and, when --tags is given, replaces
its tags. --new-id also changes the entry id and moves its local assets.`,
		Example: `  modelshelf edit fox --name "Red Fox" --tags "anime, sdxl"
  modelshelf edit fox --name "Red Fox" --new-id red-fox`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeIDs(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := ops.Edit(args[0], name, caption.SplitTags(tags))
			op.NewID = strings.TrimSpace(newID)
			return run(cmd, app, queue, []ops.Op{op})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name (required)")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags replacing the current ones")
	cmd.Flags().StringVar(&newID, "new-id", "", "new entry id")
	cmd.Flags().BoolVar(&queue, "queue", false, "queue for the next sync run instead of applying now")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(app application.Application) *cobra.Command {
	var queue bool
	cmd := &cobra.Command{
		Use:     "apply <file|->",
		GroupID: "core",
		Short:   "Apply a batch of operations",
		Long: `Apply reads a JSON batch of delete and edit operations and applies them in
order. Each operation succeeds or fails on its own.

  {"operations": [
    {"kind": "delete", "target": "fox"},
    {"kind": "edit", "target": "owl", "name": "Snow Owl", "tags": "bird, sdxl"}
  ]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			batch, err := ops.ParseBatch(data)
			if err != nil {
				return err
			}
			return run(cmd, app, queue, batch.Operations)
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "queue for the next sync run instead of applying now")
	return cmd
}

// run applies or queues batch and renders the outcome.
func run(cmd *cobra.Command, app application.Application, queue bool, batch []ops.Op) error {
	client, err := app.Client()
	if err != nil {
		return err
	}

	if queue {
		queued, err := client.Enqueue(batch...)
		if err != nil {
			return err
		}
		return output.Render(cmd.OutOrStdout(), app.OutputFormat(), queued, func(bool) output.Data {
			rows := make([][]string, len(queued))
			for i, op := range queued {
				rows[i] = []string{op.ID, op.String()}
			}
			return output.Data{Headers: []string{"Queued", "Operation"}, Rows: rows}
		})
	}

	applied, err := client.Apply(cmd.Context(), batch)
	if err != nil {
		return err
	}
	if err := output.Render(cmd.OutOrStdout(), app.OutputFormat(), applied, func(bool) output.Data {
		return output.Applied(applied)
	}); err != nil {
		return err
	}
	for _, a := range applied {
		if a.Outcome.IsFailed() {
			return a.Outcome.Err
		}
	}
	return nil
}

// completeIDs offers the ids of the persisted catalog for the first argument.
func completeIDs(app application.Application) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		client, err := app.Client()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		cat, err := client.Catalog(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var ids []string
		for _, e := range cat.Entries() {
			if strings.HasPrefix(e.ID, toComplete) {
				ids = append(ids, e.ID)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, pkgerrors.WrapIO("read", "stdin", err)
	}
	data, err := os.ReadFile(name)
	return data, pkgerrors.WrapIO("read", name, err)
}

func filter(list []*catalog.Entry, tag, search string) []*catalog.Entry {
	tag = strings.ToLower(strings.TrimSpace(tag))
	search = strings.ToLower(strings.TrimSpace(search))
	if tag == "" && search == "" {
		return list
	}
	out := make([]*catalog.Entry, 0, len(list))
	for _, e := range list {
		if tag != "" && !hasTag(e, tag) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.ID), search) &&
			!strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasTag(e *catalog.Entry, tag string) bool {
	for _, t := range e.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}
