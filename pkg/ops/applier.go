package ops

import (
	"context"
	"strings"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
	"github.com/modelshelf/modelshelf/pkg/reconciler"
)

// AssetStore moves and removes the local assets of an entry.
type AssetStore interface {
	Move(oldID, newID string) error
	Remove(id string) error
}

// Applied is the result of applying one op.
type Applied struct {
	Op Op `json:"op"`
	// Entry is the entry after an edit, or the removed entry of a delete.
	Entry *catalog.Entry `json:"entry,omitempty"`
	// OldID is the entry id before an edit that renamed it.
	OldID string `json:"old_id,omitempty"`
	// Outcome is the catalog outcome of the op.
	Outcome outcome.Outcome `json:"outcome"`
	// Assets is the outcome of moving or removing the local assets.
	Assets outcome.Outcome `json:"assets"`
	// Retirements are the channel messages retired by a delete.
	Retirements []reconciler.Retirement `json:"retirements,omitempty"`
}

// Applier applies operator ops to a catalog.
type Applier struct {
	channelID int64
	assets    AssetStore
	retirer   reconciler.Retirer
}

// NewApplier creates an Applier. A nil retirer skips message retirement.
func NewApplier(channelID int64, assets AssetStore, retirer reconciler.Retirer) *Applier {
	if retirer == nil {
		retirer = reconciler.NopRetirer{}
	}
	return &Applier{channelID: channelID, assets: assets, retirer: retirer}
}

// Apply applies one op to cat. Validation and lookup failures are returned
// as errors and leave cat untouched. Asset and retirement failures are
// reported in the returned Applied.
func (a *Applier) Apply(ctx context.Context, cat *catalog.Catalog, op Op) (Applied, error) {
	if err := op.Validate(); err != nil {
		return Applied{Op: op, Outcome: outcome.Failed(err)}, err
	}
	ctx = logging.WithOperation(ctx, string(op.Kind))
	switch op.Kind {
	case KindDelete:
		return a.delete(ctx, cat, op)
	default:
		return a.edit(ctx, cat, op)
	}
}

// ApplyAll applies ops in order. A failing op is recorded and the rest are
// still applied.
func (a *Applier) ApplyAll(ctx context.Context, cat *catalog.Catalog, ops []Op) []Applied {
	out := make([]Applied, 0, len(ops))
	for _, op := range ops {
		res, err := a.Apply(ctx, cat, op)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("op", op.String()).Msg("Operation rejected")
			res.Outcome = outcome.Failed(err)
		}
		out = append(out, res)
	}
	return out
}

func (a *Applier) delete(ctx context.Context, cat *catalog.Catalog, op Op) (Applied, error) {
	res := Applied{Op: op}
	i := findForDelete(cat, op.Target)
	if i < 0 {
		err := pkgerrors.NewNotFoundError("entry", op.Target)
		res.Outcome = outcome.Failed(err)
		return res, err
	}
	e := cat.RemoveAt(i)
	res.Entry = e
	res.Outcome = outcome.OK()
	res.Assets = a.assetOutcome(a.assets.Remove(e.ID))

	docMsg := e.DocRef()
	if docMsg == 0 {
		docMsg = catalog.MessageIDFromLocator(e.DownloadURL)
	}
	for _, msg := range []int64{docMsg, e.PhotoRef()} {
		if msg == 0 {
			continue
		}
		res.Retirements = append(res.Retirements, reconciler.Retirement{
			ChatID:    a.channelID,
			MessageID: msg,
			Outcome:   a.retirer.Retire(ctx, a.channelID, msg),
		})
	}

	logging.FromContext(logging.WithEntry(ctx, e.ID)).Info().
		Int("retired", len(res.Retirements)).
		Msg("Entry deleted")
	return res, nil
}

func (a *Applier) edit(ctx context.Context, cat *catalog.Catalog, op Op) (Applied, error) {
	res := Applied{Op: op}
	e, ok := cat.Find(op.Target)
	if !ok {
		err := pkgerrors.NewNotFoundError("entry", op.Target)
		res.Outcome = outcome.Failed(err)
		return res, err
	}
	if op.NewID != "" && op.NewID != e.ID && cat.Has(op.NewID) {
		err := pkgerrors.NewValidationError("new_id", op.NewID, "is already used by another entry")
		res.Outcome = outcome.Failed(err)
		return res, err
	}

	e.Name = strings.TrimSpace(op.Name)
	if len(op.Tags) > 0 {
		e.Tags = append([]string(nil), op.Tags...)
	}
	if op.NewID != "" && op.NewID != e.ID {
		res.OldID = e.ID
		res.Assets = a.assetOutcome(a.assets.Move(e.ID, op.NewID))
		e.ID = op.NewID
		if e.DirectURL != "" {
			e.DirectURL = catalog.DirectURLFor(e.ID, e.FileName())
		}
	} else {
		res.Assets = outcome.Skipped("unchanged")
	}

	res.Entry = e
	res.Outcome = outcome.OK()
	logging.FromContext(logging.WithEntry(ctx, e.ID)).Info().
		Str("old_id", res.OldID).
		Msg("Entry edited")
	return res, nil
}

func (a *Applier) assetOutcome(err error) outcome.Outcome {
	if err != nil {
		return outcome.Failed(err)
	}
	return outcome.OK()
}

// findForDelete matches the entry id first and the trimmed name second.
func findForDelete(cat *catalog.Catalog, target string) int {
	if i := cat.IndexOf(target); i >= 0 {
		return i
	}
	name := strings.TrimSpace(target)
	for i, e := range cat.Entries() {
		if strings.TrimSpace(e.Name) == name {
			return i
		}
	}
	return -1
}
