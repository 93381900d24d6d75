// Package collapse removes duplicate catalog entries in a maintenance pass.
//
// Entries are folded three times: by source document message (or the
// message id in the permalink), by file identity, then by id. Within each
// group the entry backed by the newest message survives, ties going to the
// later entry. The pass is idempotent.
package collapse

import (
	"context"
	"strconv"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// Result describes one collapse pass.
type Result struct {
	// Removed are the dropped entries in the order they were dropped.
	Removed []*catalog.Entry `json:"removed"`
	// Orphaned are removed ids that no surviving entry uses. Their local
	// assets can be deleted.
	Orphaned []string `json:"orphaned"`
}

// Changed reports whether the pass removed anything.
func (r *Result) Changed() bool {
	return len(r.Removed) > 0
}

// Collapse folds duplicates out of cat in place.
func Collapse(ctx context.Context, cat *catalog.Catalog) *Result {
	res := &Result{}

	entries := cat.Entries()
	for _, stage := range stages {
		var removed []*catalog.Entry
		entries, removed = fold(entries, stage.key, stage.recency)
		for _, e := range removed {
			logging.FromContext(ctx).Debug().
				Str("stage", stage.name).
				Str("entry_id", e.ID).
				Msg("Collapsed duplicate entry")
		}
		res.Removed = append(res.Removed, removed...)
	}
	cat.Replace(entries)

	kept := make(map[string]bool, len(entries))
	for _, e := range entries {
		kept[e.ID] = true
	}
	seen := make(map[string]bool)
	for _, e := range res.Removed {
		if !kept[e.ID] && !seen[e.ID] {
			seen[e.ID] = true
			res.Orphaned = append(res.Orphaned, e.ID)
		}
	}

	if res.Changed() {
		logging.FromContext(ctx).Info().
			Int("removed", len(res.Removed)).
			Int("remaining", len(entries)).
			Msg("Collapsed duplicate entries")
	}
	return res
}

type stage struct {
	name    string
	key     func(i int, e *catalog.Entry) string
	recency func(e *catalog.Entry) int64
}

var stages = []stage{
	{name: "source", key: sourceKey, recency: sourceRecency},
	{name: "file", key: fileKey, recency: (*catalog.Entry).Recency},
	{name: "id", key: func(_ int, e *catalog.Entry) string { return e.ID }, recency: (*catalog.Entry).Recency},
}

// sourceMessage is the document message id, or the one in the permalink.
func sourceMessage(e *catalog.Entry) int64 {
	if msg := e.DocRef(); msg != 0 {
		return msg
	}
	return catalog.MessageIDFromLocator(e.DownloadURL)
}

// sourceRecency is Recency with the permalink standing in for a missing
// document message id.
func sourceRecency(e *catalog.Entry) int64 {
	return max(e.PhotoRef(), sourceMessage(e))
}

// sourceKey groups by document message, falling back to the permalink.
// Entries with neither never share a group with a sourced entry.
func sourceKey(_ int, e *catalog.Entry) string {
	if msg := sourceMessage(e); msg != 0 {
		return "msg:" + strconv.FormatInt(msg, 10)
	}
	if e.FileID != "" {
		return "nodoc:" + e.FileID
	}
	return "nodoc:" + e.ID
}

// fileKey groups by file identity; entries without one stay alone.
func fileKey(i int, e *catalog.Entry) string {
	if e.FileID != "" {
		return "file:" + e.FileID
	}
	return "unique:" + strconv.Itoa(i)
}

// fold keeps one entry per key. Group order follows the first occurrence of
// each key.
func fold(entries []*catalog.Entry, key func(int, *catalog.Entry) string, recency func(*catalog.Entry) int64) (kept, removed []*catalog.Entry) {
	slot := make(map[string]int, len(entries))
	for i, e := range entries {
		k := key(i, e)
		j, ok := slot[k]
		if !ok {
			slot[k] = len(kept)
			kept = append(kept, e)
			continue
		}
		if recency(e) >= recency(kept[j]) {
			removed = append(removed, kept[j])
			kept[j] = e
		} else {
			removed = append(removed, e)
		}
	}
	return kept, removed
}
