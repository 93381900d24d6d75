package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

const testChannel = int64(-1001234)

// feed is an in-memory transport holding one published model.
type feed struct {
	mu      sync.Mutex
	updates []telegram.Update
	blobs   map[string]string
	deleted []int64
}

func newFeed() *feed {
	chat := &telegram.Chat{ID: testChannel, Username: "shelf"}
	doc := &telegram.Message{
		MessageID: 10,
		Chat:      chat,
		Document:  &telegram.Document{FileID: "doc-fox", FileName: "fox.safetensors"},
	}
	photo := &telegram.Message{
		MessageID:      11,
		Chat:           chat,
		Caption:        "name: Fox\ntags: anime, sdxl",
		Photo:          []telegram.PhotoSize{{FileID: "img-fox", Width: 640, Height: 480}},
		ReplyToMessage: doc,
	}
	return &feed{
		updates: []telegram.Update{
			{UpdateID: 1, ChannelPost: doc},
			{UpdateID: 2, ChannelPost: photo},
		},
		blobs: map[string]string{"doc-fox": "weights", "img-fox": "image"},
	}
}

func (f *feed) AllUpdates(_ context.Context, offset int64) ([]telegram.Update, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []telegram.Update
	next := offset
	for _, u := range f.updates {
		if u.UpdateID >= offset {
			out = append(out, u)
			next = u.UpdateID + 1
		}
	}
	return out, next, nil
}

func (f *feed) Download(_ context.Context, fileID string, w io.Writer) error {
	f.mu.Lock()
	blob, ok := f.blobs[fileID]
	f.mu.Unlock()
	if !ok {
		return pkgerrors.NewAPIError("telegram", "getFile", 400, "file not found")
	}
	_, err := io.WriteString(w, blob)
	return err
}

func (f *feed) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	return &Config{
		ChannelID:    testChannel,
		DataDir:      filepath.Join(root, "web"),
		CatalogPath:  filepath.Join(root, "bot", "models.json"),
		StatePath:    filepath.Join(root, "bot", "state.yaml"),
		QueuePath:    filepath.Join(root, "bot", "pending.json"),
		PollInterval: time.Millisecond,
		ListenAddr:   ":9999",
		LogLevel:     "error",
		LogOutput:    "discard",
	}
}

func newTestApp(t *testing.T, tr *feed) *App {
	t.Helper()
	chdir(t)
	logging.DisableLoggingForTest(t)

	a, err := New("1.2.3", "abc123", "2026-01-01", "test",
		WithConfig(testConfig(t)),
		WithClientOptions(modelshelf.WithTransport(tr)),
	)
	require.NoError(t, err)
	return a
}

// execute runs the root command and returns what it printed.
func execute(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := a.createRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewApp(t *testing.T) {
	a := newTestApp(t, newFeed())

	assert.Equal(t, "1.2.3", a.Version())
	assert.Equal(t, "abc123", a.Commit())
	assert.Equal(t, "2026-01-01", a.Date())
	assert.Equal(t, "test", a.BuiltBy())
	assert.NotNil(t, a.Logger())
	assert.Equal(t, testChannel, a.Config().ChannelID)

	opts := a.WatchOptions()
	assert.Equal(t, time.Millisecond, opts.Interval)
	assert.Zero(t, opts.MaxDuration)

	cfg := a.ServerConfig()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Empty(t, cfg.Token)
}

func TestClientIsCreatedOnce(t *testing.T) {
	a := newTestApp(t, newFeed())

	first, err := a.Client()
	require.NoError(t, err)
	second, err := a.Client()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestClientRequiresToken(t *testing.T) {
	chdir(t)
	logging.DisableLoggingForTest(t)

	a, err := New("dev", "", "", "", WithConfig(testConfig(t)))
	require.NoError(t, err)

	_, err = a.Client()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConfigError(err))
}

func TestWithClient(t *testing.T) {
	chdir(t)
	logging.DisableLoggingForTest(t)

	c, err := modelshelf.New(
		modelshelf.WithTransport(newFeed()),
		modelshelf.WithChannelID(testChannel),
		modelshelf.WithDataDir(t.TempDir()),
		modelshelf.WithCatalogPath(filepath.Join(t.TempDir(), "models.json")),
		modelshelf.WithQueuePath(filepath.Join(t.TempDir(), "pending.json")),
	)
	require.NoError(t, err)

	a, err := New("dev", "", "", "", WithConfig(testConfig(t)), WithClient(c))
	require.NoError(t, err)
	got, err := a.Client()
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestExecuteVersion(t *testing.T) {
	a := newTestApp(t, newFeed())

	out, err := execute(t, a, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "modelshelf version 1.2.3")
	assert.Contains(t, out, "commit: abc123")
}

func TestExecuteRejectsUnknownFormat(t *testing.T) {
	a := newTestApp(t, newFeed())

	_, err := execute(t, a, "list", "-o", "xml")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestExecuteSyncListDelete(t *testing.T) {
	tr := newFeed()
	a := newTestApp(t, tr)

	out, err := execute(t, a, "sync", "-o", "json")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	out, err = execute(t, a, "list", "-o", "json")
	require.NoError(t, err)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "fox", entries[0].ID)
	assert.Equal(t, []string{"anime", "sdxl"}, entries[0].Tags)

	out, err = execute(t, a, "list", "--tag", "missing", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, err = execute(t, a, "list", "owl")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = execute(t, a, "delete", "fox", "-o", "json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, tr.deleted)

	out, err = execute(t, a, "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestExecuteDryRunKeepsMessages(t *testing.T) {
	tr := newFeed()
	a := newTestApp(t, tr)
	a.config.DryRun = true

	_, err := execute(t, a, "sync", "-o", "json")
	require.NoError(t, err)
	_, err = execute(t, a, "delete", "fox", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, tr.deleted)
}

func TestExecuteEditQueued(t *testing.T) {
	tr := newFeed()
	a := newTestApp(t, tr)

	_, err := execute(t, a, "sync", "-o", "json")
	require.NoError(t, err)

	_, err = execute(t, a, "edit", "fox", "--name", "Red Fox", "--queue", "-o", "json")
	require.NoError(t, err)

	_, err = execute(t, a, "sync", "-o", "json")
	require.NoError(t, err)

	out, err := execute(t, a, "list", "fox", "-o", "json")
	require.NoError(t, err)
	var e catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, "Red Fox", e.Name)
}
