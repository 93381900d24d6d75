package modelshelf

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Option is a function that configures a Client.
type Option func(*options) error

type options struct {
	token     string
	channelID int64

	dataDir     string
	catalogPath string
	mirrorPath  string
	noMirror    bool
	statePath   string
	queuePath   string

	apiBase     string
	pollTimeout time.Duration
	rateLimit   float64
	burst       int
	transport   Transport

	queueCapacity int
	dryRun        bool
}

func defaults() *options {
	return &options{
		dataDir:       constants.DefaultDataDir,
		catalogPath:   constants.DefaultCatalogPath,
		statePath:     constants.DefaultStatePath,
		queuePath:     constants.DefaultQueuePath,
		apiBase:       constants.DefaultAPIBase,
		pollTimeout:   constants.DefaultPollTimeout,
		rateLimit:     constants.DefaultRateLimit,
		burst:         constants.BurstSize,
		queueCapacity: constants.MaxQueueSize,
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	if o.mirrorPath == "" {
		o.mirrorPath = filepath.Join(o.dataDir, constants.MirrorFileName)
	}
	if o.noMirror {
		o.mirrorPath = ""
	}
	return nil
}

func (o *options) validate() error {
	if o.transport == nil && strings.TrimSpace(o.token) == "" {
		return pkgerrors.NewConfigError("client", "bot token is required", pkgerrors.ErrMissingConfig)
	}
	if o.channelID == 0 {
		return pkgerrors.NewConfigError("client", "channel id is required", pkgerrors.ErrMissingConfig)
	}
	if o.dataDir == "" || o.catalogPath == "" || o.statePath == "" || o.queuePath == "" {
		return pkgerrors.NewConfigError("client", "data paths must not be empty", nil)
	}
	return nil
}

// WithToken sets the bot token.
func WithToken(token string) Option {
	return func(o *options) error {
		o.token = strings.TrimSpace(token)
		return nil
	}
}

// WithChannelID sets the channel the catalog is synchronized with.
func WithChannelID(id int64) Option {
	return func(o *options) error {
		o.channelID = id
		return nil
	}
}

// WithDataDir sets the directory holding images, files and the catalog
// mirror read by the web UI.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return pkgerrors.NewValidationError("data_dir", dir, "cannot be empty")
		}
		o.dataDir = dir
		return nil
	}
}

// WithCatalogPath sets the primary catalog file.
func WithCatalogPath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return pkgerrors.NewValidationError("catalog_path", path, "cannot be empty")
		}
		o.catalogPath = path
		return nil
	}
}

// WithMirrorPath sets where the catalog mirror is written. The default is
// models.json in the data directory.
func WithMirrorPath(path string) Option {
	return func(o *options) error {
		o.mirrorPath = path
		return nil
	}
}

// WithoutMirror disables the catalog mirror.
func WithoutMirror() Option {
	return func(o *options) error {
		o.noMirror = true
		return nil
	}
}

// WithStatePath sets the sync state file.
func WithStatePath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return pkgerrors.NewValidationError("state_path", path, "cannot be empty")
		}
		o.statePath = path
		return nil
	}
}

// WithQueuePath sets the pending operations file.
func WithQueuePath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return pkgerrors.NewValidationError("queue_path", path, "cannot be empty")
		}
		o.queuePath = path
		return nil
	}
}

// WithQueueCapacity limits the number of pending operations.
func WithQueueCapacity(n int) Option {
	return func(o *options) error {
		o.queueCapacity = n
		return nil
	}
}

// WithAPIBase overrides the Bot API root URL.
func WithAPIBase(base string) Option {
	return func(o *options) error {
		o.apiBase = base
		return nil
	}
}

// WithPollTimeout sets the long-poll timeout of each updates request.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return pkgerrors.NewValidationError("poll_timeout", d, "cannot be negative")
		}
		o.pollTimeout = d
		return nil
	}
}

// WithRateLimit limits Bot API calls per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) error {
		o.rateLimit = rps
		o.burst = burst
		return nil
	}
}

// WithTransport replaces the Bot API client. The token is not required
// when a transport is given.
func WithTransport(t Transport) Option {
	return func(o *options) error {
		if t == nil {
			return pkgerrors.NewValidationError("transport", nil, "cannot be nil")
		}
		o.transport = t
		return nil
	}
}

// WithDryRun disables message retirement. Catalog and assets are still
// written.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}
