package modelshelf

import (
	"context"
	"time"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/assets"
	"github.com/modelshelf/modelshelf/pkg/collapse"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// CollapseResult describes a collapse pass.
type CollapseResult struct {
	*collapse.Result
	Cleanup  []Cleanup     `json:"cleanup,omitempty"`
	Entries  int           `json:"entries"`
	Duration time.Duration `json:"duration"`
}

// MaterializeResult describes a backfill pass.
type MaterializeResult struct {
	Assets   []assets.Fetch         `json:"assets"`
	Counts   map[outcome.Status]int `json:"counts"`
	Duration time.Duration          `json:"duration"`
}

// Collapse removes duplicate entries from the persisted catalog and the
// local assets of the ids that disappeared. Nothing is written when the
// catalog holds no duplicates.
func (c *client) Collapse(ctx context.Context) (*CollapseResult, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start := time.Now()
	ctx = logging.WithOperation(ctx, "collapse")

	cat := c.store.Load(ctx)
	before := cat.Clone()
	res := &CollapseResult{Result: collapse.Collapse(ctx, cat)}
	res.Entries = cat.Len()

	if res.Changed() {
		if err := c.store.Save(ctx, cat); err != nil {
			return res, err
		}
		metrics.EntryChanges.WithLabelValues("collapsed").Add(float64(len(res.Removed)))
		metrics.CatalogEntries.Set(float64(cat.Len()))

		for _, id := range res.Orphaned {
			o := outcome.OK()
			if err := c.layout.Remove(id); err != nil {
				o = outcome.Failed(err)
				logging.FromContext(logging.WithEntry(ctx, id)).Warn().Err(err).Msg("Orphaned assets not removed")
			}
			res.Cleanup = append(res.Cleanup, Cleanup{EntryID: id, Reason: CleanupOrphaned, Outcome: o})
		}
		c.trigger(before, cat)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Materialize fetches every image and file missing from the data
// directory. The catalog is not modified; an unreadable one has nothing to
// fetch.
func (c *client) Materialize(ctx context.Context) (*MaterializeResult, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start := time.Now()
	ctx = logging.WithOperation(ctx, "backfill")

	cat := c.store.Load(ctx)
	fetches := c.materializer.Materialize(ctx, cat.Entries())

	outcomes := make([]outcome.Outcome, len(fetches))
	for i, f := range fetches {
		outcomes[i] = f.Outcome
	}
	return &MaterializeResult{
		Assets:   fetches,
		Counts:   outcome.Counts(outcomes...),
		Duration: time.Since(start),
	}, nil
}
