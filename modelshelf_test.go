package modelshelf_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/internal/utils/ptr"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/ops"
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

const channelID = int64(-1001234)

var channel = &telegram.Chat{ID: channelID, Username: "shelf"}

// fakeTransport serves a fixed update feed and blob set.
type fakeTransport struct {
	mu      sync.Mutex
	updates []telegram.Update
	blobs   map[string]string
	feedErr error
	deleted []int64
	polls   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{blobs: map[string]string{}}
}

func (f *fakeTransport) push(updates ...telegram.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates...)
}

func (f *fakeTransport) AllUpdates(_ context.Context, offset int64) ([]telegram.Update, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	var out []telegram.Update
	next := offset
	for _, u := range f.updates {
		if u.UpdateID >= offset {
			out = append(out, u)
			next = u.UpdateID + 1
		}
	}
	return out, next, f.feedErr
}

func (f *fakeTransport) Download(_ context.Context, fileID string, w io.Writer) error {
	f.mu.Lock()
	blob, ok := f.blobs[fileID]
	f.mu.Unlock()
	if !ok {
		return pkgerrors.NewAPIError("telegram", "getFile", 400, "file not found")
	}
	_, err := io.WriteString(w, blob)
	return err
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func doc(id int64, fileID, fileName string) *telegram.Message {
	return &telegram.Message{
		MessageID: id,
		Chat:      channel,
		Document:  &telegram.Document{FileID: fileID, FileName: fileName},
	}
}

func photo(id int64, replyTo *telegram.Message, caption, imageID string) *telegram.Message {
	return &telegram.Message{
		MessageID:      id,
		Chat:           channel,
		Caption:        caption,
		Photo:          []telegram.PhotoSize{{FileID: imageID, Width: 1280, Height: 720}},
		ReplyToMessage: replyTo,
	}
}

func post(updateID int64, m *telegram.Message) telegram.Update {
	return telegram.Update{UpdateID: updateID, ChannelPost: m}
}

type paths struct {
	root, data, catalog, state, queue string
}

func newClient(t *testing.T, tr *fakeTransport, opts ...modelshelf.Option) (modelshelf.Client, paths) {
	t.Helper()
	logging.DisableLoggingForTest(t)

	root := t.TempDir()
	p := paths{
		root:    root,
		data:    filepath.Join(root, "web"),
		catalog: filepath.Join(root, "bot", "models.json"),
		state:   filepath.Join(root, "bot", "state.yaml"),
		queue:   filepath.Join(root, "bot", "pending.json"),
	}
	base := []modelshelf.Option{
		modelshelf.WithTransport(tr),
		modelshelf.WithChannelID(channelID),
		modelshelf.WithDataDir(p.data),
		modelshelf.WithCatalogPath(p.catalog),
		modelshelf.WithStatePath(p.state),
		modelshelf.WithQueuePath(p.queue),
	}
	c, err := modelshelf.New(append(base, opts...)...)
	require.NoError(t, err)
	return c, p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// seed publishes a document and its photo and registers their blobs.
func seed(tr *fakeTransport) *telegram.Message {
	d := doc(10, "doc-fox", "fox.safetensors")
	tr.push(post(1, d), post(2, photo(11, d, "name: Fox\ntags: anime, sdxl", "img-fox")))
	tr.blobs["doc-fox"] = "weights"
	tr.blobs["img-fox"] = "image one"
	return d
}

func TestNewRequiresConfiguration(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts []modelshelf.Option
	}{
		{name: "missing token", opts: []modelshelf.Option{modelshelf.WithChannelID(channelID)}},
		{name: "blank token", opts: []modelshelf.Option{modelshelf.WithToken("  "), modelshelf.WithChannelID(channelID)}},
		{name: "missing channel", opts: []modelshelf.Option{modelshelf.WithToken("123:abc")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append(tt.opts,
				modelshelf.WithCatalogPath(filepath.Join(dir, "models.json")),
				modelshelf.WithQueuePath(filepath.Join(dir, "pending.json")),
			)
			_, err := modelshelf.New(opts...)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsConfigError(err))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := modelshelf.New(modelshelf.WithDataDir(""))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = modelshelf.New(modelshelf.WithPollTimeout(-time.Second))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = modelshelf.New(modelshelf.WithTransport(nil))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestSyncCreatesEntryAndMaterializesAssets(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)

	res, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, int64(0), res.Offset)
	assert.Equal(t, int64(3), res.NextOffset)
	assert.Equal(t, 2, res.Updates)
	assert.True(t, res.Fetch.IsOK())
	assert.Equal(t, []string{"fox"}, res.Reconcile.Created())
	assert.Equal(t, 1, res.Entries)

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, &catalog.Entry{
		ID:             "fox",
		Name:           "Fox",
		Tags:           []string{"anime", "sdxl"},
		FileID:         "doc-fox",
		ImageID:        "img-fox",
		DocMessageID:   ptr.To(int64(10)),
		PhotoMessageID: ptr.To(int64(11)),
		DownloadURL:    "https://t.me/shelf/10",
		DirectURL:      "files/fox/fox.safetensors",
	}, cat.At(0))

	assert.Equal(t, "image one", readFile(t, filepath.Join(p.data, "images", "fox.jpg")))
	assert.Equal(t, "weights", readFile(t, filepath.Join(p.data, "files", "fox", "fox.safetensors")))
	assert.Equal(t, readFile(t, p.catalog), readFile(t, filepath.Join(p.data, "models.json")))
	assert.Contains(t, readFile(t, p.state), "last_update_id: 3")
}

func TestSyncResumesFromStoredOffset(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	first := readFile(t, p.catalog)

	res, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Offset)
	assert.Equal(t, int64(3), res.NextOffset)
	assert.Zero(t, res.Updates)
	assert.Equal(t, first, readFile(t, p.catalog))
}

func TestSyncWithoutMirror(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr, modelshelf.WithoutMirror())

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, p.catalog)
	assert.NoFileExists(t, filepath.Join(p.data, "models.json"))
}

func TestSyncReplacesChangedImage(t *testing.T) {
	tr := newFakeTransport()
	d := seed(tr)
	c, p := newClient(t, tr)
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	tr.push(post(3, photo(12, d, "name: Fox\ntags: v2", "img-fox-2")))
	tr.blobs["img-fox-2"] = "image two"

	res, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, res.Reconcile.Updated())
	assert.Equal(t, []string{"fox"}, res.Reconcile.ImageChanged)
	require.Len(t, res.Cleanup, 1)
	assert.Equal(t, modelshelf.CleanupImageChanged, res.Cleanup[0].Reason)

	assert.Equal(t, "image two", readFile(t, filepath.Join(p.data, "images", "fox.jpg")))
	assert.Contains(t, tr.deleted, int64(11))

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, cat.At(0).Tags)
}

func TestSyncFeedFailureReconcilesReceivedUpdates(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	tr.feedErr = pkgerrors.NewAPIError("telegram", "getUpdates", 502, "bad gateway")
	c, p := newClient(t, tr)

	res, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Fetch.IsFailed())
	assert.True(t, pkgerrors.IsTransport(res.Fetch.Err))
	assert.Equal(t, []string{"fox"}, res.Reconcile.Created())
	assert.Contains(t, readFile(t, p.state), "last_update_id: 3")
}

func TestSyncMissingBlobIsReported(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	delete(tr.blobs, "doc-fox")
	c, p := newClient(t, tr)

	res, err := c.Sync(context.Background())
	require.NoError(t, err)

	var failed int
	for _, f := range res.Assets {
		if f.Outcome.IsFailed() {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.FileExists(t, filepath.Join(p.data, "images", "fox.jpg"))
	assert.NoFileExists(t, filepath.Join(p.data, "files", "fox", "fox.safetensors"))
}

func TestSyncSaveFailureKeepsOffset(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)

	// A directory where the catalog file should be makes the save fail.
	require.NoError(t, os.MkdirAll(p.catalog, 0o755))

	_, err := c.Sync(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, p.state)
}

func TestSyncDrainsQueue(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	queued, err := c.Enqueue(ops.Delete("Fox"))
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, 1, c.Queue().Len())

	res, err := c.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	assert.True(t, res.Operations[0].Outcome.IsOK())
	assert.Zero(t, c.Queue().Len())

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cat.Len())
	assert.ElementsMatch(t, []int64{10, 11}, tr.deleted)
	assert.NoFileExists(t, filepath.Join(p.data, "images", "fox.jpg"))
	assert.NoDirExists(t, filepath.Join(p.data, "files", "fox"))
}

func TestDryRunDoesNotRetireMessages(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, _ := newClient(t, tr, modelshelf.WithDryRun(true))
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	_, err = c.Delete(context.Background(), "fox")
	require.NoError(t, err)
	assert.Empty(t, tr.deleted)
}

func TestHooks(t *testing.T) {
	tr := newFakeTransport()
	d := seed(tr)
	c, _ := newClient(t, tr)

	var added, removed []string
	var updated []string
	c.OnEntryAdded(func(e catalog.Entry) { added = append(added, e.ID) })
	c.OnEntryUpdated(func(old, new catalog.Entry) {
		updated = append(updated, fmt.Sprintf("%s:%v->%v", new.ID, old.Tags, new.Tags))
	})
	c.OnEntryRemoved(func(e catalog.Entry) { removed = append(removed, e.ID) })

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, added)

	tr.push(post(3, photo(12, d, "tags: retagged", "img-fox")))
	_, err = c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fox:[anime sdxl]->[retagged]"}, updated)

	_, err = c.Delete(context.Background(), "fox")
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, removed)
}

func TestDeleteAndEdit(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	op := ops.Edit("fox", "  Red Fox ", []string{"furry"})
	op.NewID = "red-fox"
	applied, err := c.Edit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, "fox", applied.OldID)
	assert.True(t, applied.Assets.IsOK())

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	e, ok := cat.Find("red-fox")
	require.True(t, ok)
	assert.Equal(t, "Red Fox", e.Name)
	assert.Equal(t, []string{"furry"}, e.Tags)
	assert.Equal(t, "files/red-fox/fox.safetensors", e.DirectURL)
	assert.FileExists(t, filepath.Join(p.data, "images", "red-fox.jpg"))
	assert.FileExists(t, filepath.Join(p.data, "files", "red-fox", "fox.safetensors"))

	_, err = c.Delete(context.Background(), "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = c.Delete(context.Background(), "Red Fox")
	require.NoError(t, err)
	cat, err = c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cat.Len())
}

func TestApplyRejectsInvalidBatch(t *testing.T) {
	tr := newFakeTransport()
	c, p := newClient(t, tr)

	_, err := c.Apply(context.Background(), []ops.Op{ops.Delete("a"), ops.Edit("b", " ", nil)})
	assert.True(t, pkgerrors.IsValidationError(err))
	assert.NoFileExists(t, p.catalog)
}

func TestCollapse(t *testing.T) {
	tr := newFakeTransport()
	c, p := newClient(t, tr)

	store := catalog.NewStore(p.catalog)
	require.NoError(t, store.Save(context.Background(), catalog.New(
		&catalog.Entry{ID: "fox", FileID: "a", DocMessageID: ptr.To(int64(10)), PhotoMessageID: ptr.To(int64(11)), Tags: []string{}},
		&catalog.Entry{ID: "fox-10", FileID: "a", DocMessageID: ptr.To(int64(10)), PhotoMessageID: ptr.To(int64(12)), Tags: []string{}},
		&catalog.Entry{ID: "owl", FileID: "b", DocMessageID: ptr.To(int64(20)), Tags: []string{}},
	)))
	require.NoError(t, os.MkdirAll(filepath.Join(p.data, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.data, "images", "fox.jpg"), []byte("x"), 0o644))

	var removed []string
	c.OnEntryRemoved(func(e catalog.Entry) { removed = append(removed, e.ID) })

	res, err := c.Collapse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, res.Orphaned)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, []string{"fox"}, removed)
	assert.NoFileExists(t, filepath.Join(p.data, "images", "fox.jpg"))

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fox-10", "owl"}, cat.IDs())

	again, err := c.Collapse(context.Background())
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestMaterializeBackfillsMissingAssets(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(p.data, "images", "fox.jpg")))

	res, err := c.Materialize(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Assets, 2)
	assert.Equal(t, 1, res.Counts["ok"])
	assert.Equal(t, 1, res.Counts["skipped"])
	assert.FileExists(t, filepath.Join(p.data, "images", "fox.jpg"))
}

func TestMaterializeCorruptCatalogFetchesNothing(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, p := newClient(t, tr)
	require.NoError(t, os.MkdirAll(filepath.Dir(p.catalog), 0o755))
	require.NoError(t, os.WriteFile(p.catalog, []byte("{not json"), 0o644))

	res, err := c.Materialize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Assets)
	assert.NoDirExists(t, filepath.Join(p.data, "images"))
}

func TestWatchStopsAfterMaxDuration(t *testing.T) {
	tr := newFakeTransport()
	seed(tr)
	c, _ := newClient(t, tr)

	var runs int
	err := c.Watch(context.Background(), modelshelf.WatchOptions{
		Interval:    time.Millisecond,
		MaxDuration: 20 * time.Millisecond,
		OnRun: func(res *modelshelf.SyncResult, err error) {
			runs++
			assert.NoError(t, err)
		},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, runs, 1)
	assert.Equal(t, runs, tr.pollCount())
}

func TestWatchStopsOnCancel(t *testing.T) {
	tr := newFakeTransport()
	c, _ := newClient(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, modelshelf.WatchOptions{
			Interval: time.Hour,
			OnRun:    func(*modelshelf.SyncResult, error) { cancel() },
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Equal(t, 1, tr.pollCount())
}

func TestNudgeStartsNextRun(t *testing.T) {
	tr := newFakeTransport()
	c, _ := newClient(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, modelshelf.WatchOptions{
			Interval: time.Hour,
			OnRun:    func(*modelshelf.SyncResult, error) { runs <- struct{}{} },
		})
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("run did not happen")
		}
	}
	waitRun()
	c.Nudge()
	waitRun()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, tr.pollCount())
}

func TestSyncErrorsDoNotStopWatch(t *testing.T) {
	tr := newFakeTransport()
	tr.feedErr = errors.New("network down")
	c, _ := newClient(t, tr)

	var fetchFailures int
	err := c.Watch(context.Background(), modelshelf.WatchOptions{
		Interval:    time.Millisecond,
		MaxDuration: 10 * time.Millisecond,
		OnRun: func(res *modelshelf.SyncResult, err error) {
			require.NoError(t, err)
			if res.Fetch.IsFailed() {
				fetchFailures++
			}
		},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fetchFailures, 1)
}
