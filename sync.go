package modelshelf

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/assets"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/events"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/ops"
	"github.com/modelshelf/modelshelf/pkg/outcome"
	"github.com/modelshelf/modelshelf/pkg/reconciler"
)

// SyncResult describes one sync run.
type SyncResult struct {
	RunID     string   `json:"run_id"`
	StartedAt utc.Time `json:"started_at"`

	// Offset is the update offset the run started from.
	Offset int64 `json:"offset"`
	// NextOffset is the offset persisted for the next run.
	NextOffset int64 `json:"next_offset"`
	// Updates is the number of updates received.
	Updates int `json:"updates"`
	// Fetch is the outcome of reading the updates feed. A failed fetch
	// still reconciles whatever arrived before the failure.
	Fetch outcome.Outcome `json:"fetch"`

	// Operations are the queued operator ops applied before reconciling.
	Operations []ops.Applied `json:"operations,omitempty"`
	// Reconcile is the result of folding the updates into the catalog.
	Reconcile *reconciler.Result `json:"reconcile"`
	// Cleanup lists local assets dropped because they went stale.
	Cleanup []Cleanup `json:"cleanup,omitempty"`
	// Assets are the materialization outcomes.
	Assets []assets.Fetch `json:"assets,omitempty"`

	Entries  int           `json:"entries"`
	Duration time.Duration `json:"duration"`
}

// Cleanup is the outcome of dropping a stale local asset.
type Cleanup struct {
	EntryID string          `json:"entry_id"`
	Reason  string          `json:"reason"`
	Outcome outcome.Outcome `json:"outcome"`
}

// Cleanup reasons.
const (
	CleanupImageChanged = "image changed"
	CleanupFileChanged  = "file changed"
	CleanupOrphaned     = "orphaned"
)

// Sync runs one reconciliation pass.
//
// Queued operator ops are applied first, then every channel update since
// the stored offset is folded into the catalog. The catalog is persisted
// before the offset so a failed save replays the same updates next time.
// Transport failures never abort the run.
func (c *client) Sync(ctx context.Context) (result *SyncResult, err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	// Step 1: Attach a run id to the logger
	start := time.Now()
	result = &SyncResult{RunID: uuid.NewString(), StartedAt: utc.Now()}
	ctx = logging.WithRun(ctx, result.RunID)
	logger := logging.FromContext(ctx)
	defer func() {
		result.Duration = time.Since(start)
		metrics.SyncRuns.WithLabelValues(metrics.Status(err)).Inc()
		metrics.SyncDuration.Observe(result.Duration.Seconds())
	}()

	// Step 2: Load catalog and state
	cat := c.store.Load(ctx)
	before := cat.Clone()
	st := c.state.Load(ctx)
	result.Offset = st.LastUpdateID

	// Step 3: Apply queued operator ops
	pending := c.queue.Pending()
	if len(pending) > 0 {
		result.Operations = c.applier.ApplyAll(ctx, cat, pending)
		recordApplied(result.Operations)
	}

	// Step 4: Read the updates feed
	updates, next, fetchErr := c.transport.AllUpdates(ctx, st.LastUpdateID)
	result.Updates = len(updates)
	result.NextOffset = next
	result.Fetch = outcome.OK()
	if fetchErr != nil {
		result.Fetch = outcome.Failed(fetchErr)
		logger.Warn().Err(fetchErr).
			Int("received", len(updates)).
			Msg("Updates feed failed, reconciling what arrived")
	}

	// Step 5: Reconcile
	batch := events.Normalize(updates, c.opts.channelID)
	result.Reconcile = c.reconciler.Reconcile(ctx, cat, batch)
	recordReconcile(result.Reconcile)

	// Step 6: Drop stale local assets
	result.Cleanup = c.cleanup(ctx, result.Reconcile)

	// Step 7: Persist catalog, then the offset
	if err = c.store.Save(ctx, cat); err != nil {
		logger.Error().Err(err).Msg("Catalog save failed, offset not advanced")
		return result, err
	}
	result.Entries = cat.Len()
	metrics.CatalogEntries.Set(float64(cat.Len()))

	if len(pending) > 0 {
		ids := make([]string, len(pending))
		for i, op := range pending {
			ids[i] = op.ID
		}
		if ackErr := c.queue.Ack(ids...); ackErr != nil {
			logger.Warn().Err(ackErr).Msg("Queued operations applied but not acknowledged")
		}
	}

	if err = c.state.Save(catalog.State{LastUpdateID: next}); err != nil {
		logger.Error().Err(err).Msg("Sync state save failed")
		return result, err
	}
	metrics.LastUpdateID.Set(float64(next))

	// Step 8: Notify hooks
	c.trigger(before, cat)

	// Step 9: Materialize assets
	result.Assets = c.materializer.Materialize(ctx, cat.Entries())

	logger.Info().
		Int("updates", result.Updates).
		Int64("next_offset", next).
		Int("entries", result.Entries).
		Dur("duration", time.Since(start)).
		Msg("Sync run finished")
	return result, nil
}

// cleanup removes local assets invalidated by a reconcile pass so the
// materializer fetches fresh copies.
func (c *client) cleanup(ctx context.Context, res *reconciler.Result) []Cleanup {
	var out []Cleanup
	add := func(id, reason string, err error) {
		o := outcome.OK()
		if err != nil {
			o = outcome.Failed(err)
			logging.FromContext(logging.WithEntry(ctx, id)).Warn().
				Err(err).
				Str("reason", reason).
				Msg("Stale asset not removed")
		}
		out = append(out, Cleanup{EntryID: id, Reason: reason, Outcome: o})
	}

	for _, id := range res.ImageChanged {
		add(id, CleanupImageChanged, c.layout.InvalidateImage(id))
	}
	for _, fc := range res.FileChanged {
		if fc.OldDirectURL == "" {
			continue
		}
		add(fc.EntryID, CleanupFileChanged, c.layout.InvalidateFile(fc.OldDirectURL))
	}
	for _, id := range res.Orphaned {
		add(id, CleanupOrphaned, c.layout.Remove(id))
	}
	return out
}

func recordReconcile(res *reconciler.Result) {
	metrics.EntryChanges.WithLabelValues(string(reconciler.ActionCreated)).Add(float64(len(res.Created())))
	metrics.EntryChanges.WithLabelValues(string(reconciler.ActionUpdated)).Add(float64(len(res.Updated())))
	metrics.EntryChanges.WithLabelValues("removed").Add(float64(len(res.Removed)))
	for _, p := range res.Photos {
		metrics.PhotoOutcomes.WithLabelValues(string(p.Outcome.Status)).Inc()
	}
}

func recordApplied(applied []ops.Applied) {
	for _, a := range applied {
		if a.Outcome.IsFailed() {
			continue
		}
		switch a.Op.Kind {
		case ops.KindDelete:
			metrics.EntryChanges.WithLabelValues("deleted").Inc()
		case ops.KindEdit:
			metrics.EntryChanges.WithLabelValues("edited").Inc()
		}
	}
}
