// Package reconciler folds normalized channel events into the catalog.
//
// Each photo post that replies to a document is resolved against the
// catalog with an ordered list of matchers. A miss creates an entry; a hit
// updates the matched entry in place, keeps its id, removes the entries it
// supersedes and retires the channel messages that no longer back it.
// Photo posts are processed strictly in arrival order because later posts
// must see the mutations made by earlier ones.
package reconciler

import (
	"context"
	"time"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/events"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// Reconciler merges channel events into a catalog.
type Reconciler struct {
	channelID int64
	retirer   Retirer
	matchers  []Matcher
}

// New creates a Reconciler for the channel channelID.
func New(channelID int64, opts ...Option) (*Reconciler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Reconciler{
		channelID: channelID,
		retirer:   o.retirer,
		matchers:  o.matchers,
	}, nil
}

// Reconcile processes every photo post of batch against cat, mutating cat
// in place.
func (r *Reconciler) Reconcile(ctx context.Context, cat *catalog.Catalog, batch *events.Batch) *Result {
	start := time.Now()
	result := &Result{Photos: make([]PhotoResult, 0, len(batch.Photos))}
	logger := logging.FromContext(ctx)

	for _, photo := range batch.Photos {
		pctx := logging.WithMessage(ctx, photo.MessageID)
		pr := r.process(pctx, cat, NewCandidate(photo, batch), result)
		if !pr.Outcome.IsOK() {
			logging.FromContext(pctx).Debug().Str("outcome", pr.Outcome.String()).Msg("Photo post skipped")
		}
		result.Photos = append(result.Photos, pr)
	}

	result.Orphaned = orphans(cat, result.Removed)
	result.Duration = time.Since(start)

	logger.Info().
		Int("photos", len(batch.Photos)).
		Int("created", len(result.Created())).
		Int("updated", len(result.Updated())).
		Int("removed", len(result.Removed)).
		Int("retired", len(result.Retirements)).
		Dur("duration", result.Duration).
		Msg("Reconciled channel events")

	return result
}

// process resolves and merges one candidate.
func (r *Reconciler) process(ctx context.Context, cat *catalog.Catalog, c *Candidate, result *Result) PhotoResult {
	if c.Best == nil {
		return PhotoResult{MessageID: c.Photo.MessageID, Action: ActionNone, Outcome: outcome.Skipped(ReasonNoPhotoSizes)}
	}

	res := Resolve(cat, c, r.matchers)
	if res.Canonical != nil {
		return r.update(ctx, cat, c, res, result)
	}
	if c.Document == nil {
		return PhotoResult{MessageID: c.Photo.MessageID, Action: ActionNone, Outcome: outcome.Skipped(ReasonNoDocument)}
	}
	return r.create(ctx, cat, c)
}

// orphans returns the ids of removed entries not used by any remaining entry.
func orphans(cat *catalog.Catalog, removed []*catalog.Entry) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range removed {
		if seen[e.ID] || cat.Has(e.ID) {
			continue
		}
		seen[e.ID] = true
		ids = append(ids, e.ID)
	}
	return ids
}
