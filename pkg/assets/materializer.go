package assets

import (
	"context"
	"io"

	"github.com/modelshelf/modelshelf/internal/fsutil"
	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// Kind is the asset kind.
type Kind string

// Asset kinds.
const (
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Skip reasons.
const (
	ReasonPresent    = "already present"
	ReasonNoIdentity = "no identity token"
	ReasonCancelled  = "cancelled"
)

// Fetcher streams the blob behind a transport file identity into w.
type Fetcher interface {
	Download(ctx context.Context, fileID string, w io.Writer) error
}

// Fetch is the outcome of materializing one asset.
type Fetch struct {
	EntryID string          `json:"entry_id"`
	Kind    Kind            `json:"kind"`
	Path    string          `json:"path"`
	Outcome outcome.Outcome `json:"outcome"`
}

// Materializer ensures every entry has its image and file on disk.
type Materializer struct {
	layout  Layout
	fetcher Fetcher
}

// NewMaterializer creates a Materializer writing under layout.
func NewMaterializer(layout Layout, fetcher Fetcher) *Materializer {
	return &Materializer{layout: layout, fetcher: fetcher}
}

// Layout returns the layout assets are written to.
func (m *Materializer) Layout() Layout {
	return m.layout
}

// Materialize fetches the missing assets of entries one at a time. A
// failed fetch is reported and the remaining assets are still processed.
func (m *Materializer) Materialize(ctx context.Context, entries []*catalog.Entry) []Fetch {
	fetches := make([]Fetch, 0, 2*len(entries))
	for _, e := range entries {
		fetches = append(fetches, m.Entry(ctx, e)...)
	}

	counts := make(map[outcome.Status]int, 3)
	for _, f := range fetches {
		counts[f.Outcome.Status]++
	}
	logging.FromContext(ctx).Info().
		Int("entries", len(entries)).
		Int("fetched", counts[outcome.StatusOK]).
		Int("failed", counts[outcome.StatusFailed]).
		Msg("Assets materialized")
	return fetches
}

// Entry fetches the missing assets of a single entry.
func (m *Materializer) Entry(ctx context.Context, e *catalog.Entry) []Fetch {
	return []Fetch{
		m.fetch(ctx, e.ID, KindImage, e.ImageID, m.layout.ImagePath(e.ID)),
		m.fetch(ctx, e.ID, KindFile, e.FileID, m.layout.FilePath(e)),
	}
}

func (m *Materializer) fetch(ctx context.Context, id string, kind Kind, fileID, dest string) Fetch {
	f := Fetch{EntryID: id, Kind: kind, Path: dest}
	switch {
	case fsutil.Exists(dest):
		f.Outcome = outcome.Skipped(ReasonPresent)
		return f
	case fileID == "":
		f.Outcome = outcome.Skipped(ReasonNoIdentity)
		return f
	case ctx.Err() != nil:
		f.Outcome = outcome.Skipped(ReasonCancelled)
		return f
	}

	err := fsutil.WriteFrom(dest, func(w io.Writer) error {
		return m.fetcher.Download(ctx, fileID, w)
	})
	metrics.AssetFetches.WithLabelValues(string(kind), metrics.Status(err)).Inc()
	if err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("entry_id", id).
			Str("kind", string(kind)).
			Msg("Asset fetch failed")
		f.Outcome = outcome.Failed(err)
		return f
	}

	logging.FromContext(ctx).Debug().
		Str("entry_id", id).
		Str("kind", string(kind)).
		Str("path", dest).
		Msg("Asset fetched")
	f.Outcome = outcome.OK()
	return f
}
