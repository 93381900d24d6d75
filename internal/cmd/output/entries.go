package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/pkg/assets"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/ops"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// Entries renders catalog entries. The wide variant adds the locators.
func Entries(entries []*catalog.Entry, wide bool) Data {
	headers := []string{"ID", "Name", "Tags", "Doc", "Photo"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight}
	if wide {
		headers = append(headers, "File", "Download")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{
			e.ID,
			e.Name,
			strings.Join(e.Tags, ", "),
			messageRef(e.DocRef()),
			messageRef(e.PhotoRef()),
		}
		if wide {
			row = append(row, e.DirectURL, e.DownloadURL)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// Sync renders the summary of a sync run.
func Sync(res *modelshelf.SyncResult) Data {
	rows := [][]string{
		{"Run", res.RunID},
		{"Updates", strconv.Itoa(res.Updates)},
		{"Offset", strconv.FormatInt(res.Offset, 10) + " -> " + strconv.FormatInt(res.NextOffset, 10)},
		{"Feed", res.Fetch.String()},
	}
	if len(res.Operations) > 0 {
		rows = append(rows, []string{"Operations", counts(appliedOutcomes(res.Operations))})
	}
	if res.Reconcile != nil {
		rows = append(rows,
			[]string{"Created", joinOrDash(res.Reconcile.Created())},
			[]string{"Updated", joinOrDash(res.Reconcile.Updated())},
			[]string{"Removed", strconv.Itoa(len(res.Reconcile.Removed))},
			[]string{"Skipped photos", strconv.Itoa(len(res.Reconcile.Skipped()))},
			[]string{"Retired", counts(retirementOutcomes(res))},
		)
	}
	rows = append(rows,
		[]string{"Assets", counts(fetchOutcomes(res.Assets))},
		[]string{"Entries", strconv.Itoa(res.Entries)},
		[]string{"Duration", res.Duration.Round(time.Millisecond).String()},
	)
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// Applied renders operator op results.
func Applied(applied []ops.Applied) Data {
	rows := make([][]string, 0, len(applied))
	for _, a := range applied {
		id := ""
		if a.Entry != nil {
			id = a.Entry.ID
		}
		rows = append(rows, []string{a.Op.String(), id, a.Outcome.String(), a.Assets.String()})
	}
	return Data{Headers: []string{"Operation", "Entry", "Outcome", "Assets"}, Rows: rows}
}

// Fetches renders asset materialization outcomes. Present assets are
// left out unless all is set.
func Fetches(fetches []assets.Fetch, all bool) Data {
	rows := make([][]string, 0, len(fetches))
	for _, f := range fetches {
		if !all && f.Outcome.Reason == assets.ReasonPresent {
			continue
		}
		rows = append(rows, []string{f.EntryID, string(f.Kind), f.Path, f.Outcome.String()})
	}
	return Data{Headers: []string{"Entry", "Kind", "Path", "Outcome"}, Rows: rows}
}

func messageRef(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func counts(outcomes []outcome.Outcome) string {
	if len(outcomes) == 0 {
		return "-"
	}
	c := outcome.Counts(outcomes...)
	parts := make([]string, 0, 3)
	for _, s := range []outcome.Status{outcome.StatusOK, outcome.StatusSkipped, outcome.StatusFailed} {
		if c[s] > 0 {
			parts = append(parts, strconv.Itoa(c[s])+" "+string(s))
		}
	}
	return strings.Join(parts, ", ")
}

func appliedOutcomes(applied []ops.Applied) []outcome.Outcome {
	out := make([]outcome.Outcome, len(applied))
	for i, a := range applied {
		out[i] = a.Outcome
	}
	return out
}

func retirementOutcomes(res *modelshelf.SyncResult) []outcome.Outcome {
	out := make([]outcome.Outcome, len(res.Reconcile.Retirements))
	for i, r := range res.Reconcile.Retirements {
		out[i] = r.Outcome
	}
	return out
}

func fetchOutcomes(fetches []assets.Fetch) []outcome.Outcome {
	out := make([]outcome.Outcome, len(fetches))
	for i, f := range fetches {
		out[i] = f.Outcome
	}
	return out
}
