package reconciler

import (
	"time"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// Action is what happened to the catalog for one photo post.
type Action string

// Actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionNone    Action = "none"
)

// PhotoResult is the result of processing one photo post.
type PhotoResult struct {
	MessageID int64           `json:"message_id"`
	EntryID   string          `json:"entry_id,omitempty"`
	Action    Action          `json:"action"`
	MatchedBy string          `json:"matched_by,omitempty"`
	Outcome   outcome.Outcome `json:"outcome"`
}

// FileChange records a document replaced under an existing entry.
type FileChange struct {
	EntryID   string `json:"entry_id"`
	OldFileID string `json:"old_file_id"`
	// OldDirectURL is the previous local file locator, relative to the data dir.
	OldDirectURL string `json:"old_direct_url,omitempty"`
}

// Result is the outcome of one Reconcile call.
type Result struct {
	Photos      []PhotoResult    `json:"photos"`
	Removed     []*catalog.Entry `json:"removed,omitempty"`
	Retirements []Retirement     `json:"retirements,omitempty"`

	// ImageChanged lists entries whose preview image identity changed.
	ImageChanged []string `json:"image_changed,omitempty"`
	// FileChanged lists entries whose document was replaced.
	FileChanged []FileChange `json:"file_changed,omitempty"`
	// Orphaned lists removed ids no longer used by any entry.
	Orphaned []string `json:"orphaned,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Created returns the ids of created entries in order.
func (r *Result) Created() []string {
	return r.ids(ActionCreated)
}

// Updated returns the ids of updated entries in order, without repeats.
func (r *Result) Updated() []string {
	return r.ids(ActionUpdated)
}

// Skipped returns the photo results that did not change the catalog.
func (r *Result) Skipped() []PhotoResult {
	var out []PhotoResult
	for _, p := range r.Photos {
		if p.Action == ActionNone {
			out = append(out, p)
		}
	}
	return out
}

// Outcomes returns every per-photo and retirement outcome.
func (r *Result) Outcomes() []outcome.Outcome {
	out := make([]outcome.Outcome, 0, len(r.Photos)+len(r.Retirements))
	for _, p := range r.Photos {
		out = append(out, p.Outcome)
	}
	for _, rt := range r.Retirements {
		out = append(out, rt.Outcome)
	}
	return out
}

func (r *Result) ids(action Action) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range r.Photos {
		if p.Action == action && !seen[p.EntryID] {
			seen[p.EntryID] = true
			ids = append(ids, p.EntryID)
		}
	}
	return ids
}
