package modelshelf

import (
	"context"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/ops"
)

// Delete removes the entry whose id, or else trimmed name, equals target.
func (c *client) Delete(ctx context.Context, target string) (ops.Applied, error) {
	applied, err := c.Apply(ctx, []ops.Op{ops.Delete(target)})
	if len(applied) == 0 {
		return ops.Applied{}, err
	}
	if err == nil && applied[0].Outcome.IsFailed() {
		err = applied[0].Outcome.Err
	}
	return applied[0], err
}

// Edit applies a single edit op.
func (c *client) Edit(ctx context.Context, op ops.Op) (ops.Applied, error) {
	op.Kind = ops.KindEdit
	applied, err := c.Apply(ctx, []ops.Op{op})
	if len(applied) == 0 {
		return ops.Applied{}, err
	}
	if err == nil && applied[0].Outcome.IsFailed() {
		err = applied[0].Outcome.Err
	}
	return applied[0], err
}

// Apply applies ops in order to the persisted catalog and saves it once.
// Ops that fail are reported in their Applied outcome; the catalog is
// saved when at least one op succeeded.
func (c *client) Apply(ctx context.Context, batch []ops.Op) ([]ops.Applied, error) {
	for _, op := range batch {
		if err := op.Validate(); err != nil {
			return nil, err
		}
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()

	cat, err := c.store.Read()
	if err != nil {
		return nil, err
	}
	before := cat.Clone()

	applied := c.applier.ApplyAll(ctx, cat, batch)
	recordApplied(applied)
	if !anySucceeded(applied) {
		return applied, nil
	}
	if err := c.store.Save(ctx, cat); err != nil {
		return applied, err
	}
	metrics.CatalogEntries.Set(float64(cat.Len()))
	c.trigger(before, cat)
	return applied, nil
}

// Enqueue queues ops for the next sync run.
func (c *client) Enqueue(batch ...ops.Op) ([]ops.Op, error) {
	return c.queue.Enqueue(batch...)
}

func anySucceeded(applied []ops.Applied) bool {
	for _, a := range applied {
		if !a.Outcome.IsFailed() {
			return true
		}
	}
	return false
}
