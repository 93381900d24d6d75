// Package modelshelf keeps a catalog of downloadable model files in sync
// with a Telegram channel.
//
// A channel post carrying a document is paired with a later photo post
// replying to it. Each run reads the channel updates since the stored
// offset, folds the pairs into the catalog, persists it and fetches the
// preview images and files referenced by the catalog into a static data
// directory.
//
// Example usage:
//
//	client, err := modelshelf.New(
//	    modelshelf.WithToken(os.Getenv("BOT_TOKEN")),
//	    modelshelf.WithChannelID(-1001234567890),
//	    modelshelf.WithDataDir("web"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnEntryAdded(func(e catalog.Entry) {
//	    log.Printf("New entry: %s", e.ID)
//	})
//
//	result, err := client.Sync(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.Reconcile.Created()), "created")
package modelshelf

import (
	"context"
	"io"
	"sync"

	"github.com/modelshelf/modelshelf/pkg/assets"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/ops"
	"github.com/modelshelf/modelshelf/pkg/reconciler"
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Transport is the messaging API the client talks to.
type Transport interface {
	// AllUpdates returns every update from offset onward and the next offset.
	AllUpdates(ctx context.Context, offset int64) ([]telegram.Update, int64, error)
	// Download streams the blob behind fileID into w.
	Download(ctx context.Context, fileID string, w io.Writer) error
	// DeleteMessage removes a message from a chat.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Catalog provides read access to the persisted catalog.
type Catalog interface {
	// Catalog loads the persisted catalog. The result is a private copy.
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// Syncer runs reconciliation passes against the channel.
type Syncer interface {
	// Sync runs one full pass: drain queued ops, fetch updates, reconcile,
	// persist and materialize assets.
	Sync(ctx context.Context) (*SyncResult, error)
}

// Maintainer runs catalog maintenance passes.
type Maintainer interface {
	// Collapse removes duplicate entries from the persisted catalog.
	Collapse(ctx context.Context) (*CollapseResult, error)
	// Materialize fetches every missing image and file.
	Materialize(ctx context.Context) (*MaterializeResult, error)
}

// Operator applies operator operations.
type Operator interface {
	// Delete removes an entry by id or name and retires its messages.
	Delete(ctx context.Context, target string) (ops.Applied, error)
	// Edit renames or retags an entry.
	Edit(ctx context.Context, op ops.Op) (ops.Applied, error)
	// Apply applies ops in order in a single pass.
	Apply(ctx context.Context, batch []ops.Op) ([]ops.Applied, error)
	// Enqueue queues ops for the next sync run.
	Enqueue(batch ...ops.Op) ([]ops.Op, error)
	// Queue returns the pending operation queue.
	Queue() *ops.Queue
}

// Watcher runs sync passes continuously.
type Watcher interface {
	// Watch runs Sync until ctx is done or the maximum duration elapsed.
	Watch(ctx context.Context, opts WatchOptions) error
	// Nudge asks a running Watch to start its next pass now.
	Nudge()
}

// Hooks registers catalog change callbacks.
type Hooks interface {
	OnEntryAdded(EntryAddedHook)
	OnEntryUpdated(EntryUpdatedHook)
	OnEntryRemoved(EntryRemovedHook)
}

// Client manages the catalog of a single channel.
type Client interface {
	Catalog
	Syncer
	Maintainer
	Operator
	Watcher
	Hooks
}

type client struct {
	opts *options

	transport    Transport
	store        *catalog.Store
	state        *catalog.StateStore
	layout       assets.Layout
	materializer *assets.Materializer
	reconciler   *reconciler.Reconciler
	applier      *ops.Applier
	queue        *ops.Queue

	*hooks

	// runMu serializes passes that rewrite the catalog.
	runMu sync.Mutex
	nudge chan struct{}
}

// New creates a Client. Configuration errors are returned before anything
// is read or written.
func New(opts ...Option) (Client, error) {
	o := defaults()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	transport := o.transport
	if transport == nil {
		transport = telegram.New(o.token,
			telegram.WithAPIBase(o.apiBase),
			telegram.WithPollTimeout(o.pollTimeout),
			telegram.WithRateLimit(o.rateLimit, o.burst),
		)
	}

	var retirer reconciler.Retirer = reconciler.NewChannelRetirer(transport)
	if o.dryRun {
		retirer = reconciler.NopRetirer{}
	}
	rec, err := reconciler.New(o.channelID, reconciler.WithRetirer(retirer))
	if err != nil {
		return nil, err
	}

	var storeOpts []catalog.StoreOption
	if o.mirrorPath != "" {
		storeOpts = append(storeOpts, catalog.WithMirror(o.mirrorPath))
	}

	queue, err := ops.NewQueue(o.queuePath, o.queueCapacity)
	if err != nil {
		return nil, err
	}

	layout := assets.NewLayout(o.dataDir)
	return &client{
		opts:         o,
		transport:    transport,
		store:        catalog.NewStore(o.catalogPath, storeOpts...),
		state:        catalog.NewStateStore(o.statePath),
		layout:       layout,
		materializer: assets.NewMaterializer(layout, transport),
		reconciler:   rec,
		applier:      ops.NewApplier(o.channelID, layout, retirer),
		queue:        queue,
		hooks:        newHooks(),
		nudge:        make(chan struct{}, 1),
	}, nil
}

// Catalog loads the persisted catalog.
func (c *client) Catalog(_ context.Context) (*catalog.Catalog, error) {
	return c.store.Read()
}

// Queue returns the pending operation queue.
func (c *client) Queue() *ops.Queue {
	return c.queue
}
