// Package constants provides shared constants used throughout the modelshelf codebase.
// This includes timeouts, file permissions, storage defaults and API limits
// that should be consistent across the library and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for short Bot API calls
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultPollTimeout is the long-poll timeout passed to getUpdates
	DefaultPollTimeout = 30 * time.Second

	// DownloadTimeout bounds a single blob download
	DownloadTimeout = 5 * time.Minute

	// DefaultPollInterval is the pause between runs in continuous mode
	DefaultPollInterval = 3 * time.Second

	// ShutdownTimeout is how long the trigger server waits for in-flight requests
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards the trigger server against slow clients
	ReadHeaderTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Storage defaults, relative to the working directory
const (
	// DefaultDataDir is the static site root holding images/ and files/
	DefaultDataDir = "web"

	// DefaultCatalogPath is the primary catalog document
	DefaultCatalogPath = "bot/models.json"

	// DefaultStatePath holds the next update offset
	DefaultStatePath = "bot/state.yaml"

	// DefaultQueuePath holds operator operations awaiting the next run
	DefaultQueuePath = "bot/pending.json"

	// MirrorFileName is the catalog copy served next to the assets
	MirrorFileName = "models.json"

	// ImagesDir is the directory under the data dir holding preview images
	ImagesDir = "images"

	// FilesDir is the directory under the data dir holding downloaded documents
	FilesDir = "files"

	// ImageExt is the extension used for every stored preview image
	ImageExt = ".jpg"
)

// Telegram Bot API constants
const (
	// DefaultAPIBase is the Bot API root
	DefaultAPIBase = "https://api.telegram.org"

	// PermalinkBase is the public message link root
	PermalinkBase = "https://t.me"

	// PrivateChannelPrefix is stripped from private channel ids in permalinks
	PrivateChannelPrefix = "-100"

	// DefaultRateLimit is the sustained requests per second sent to the Bot API
	DefaultRateLimit = 20

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 5

	// FilePathCacheSize is the number of getFile results kept in memory
	FilePathCacheSize = 512

	// FilePathCacheTTL is below the one hour validity of Bot API file paths
	FilePathCacheTTL = 55 * time.Minute
)

// Limit constants define various limits and capacities
const (
	// MaxQueueSize is the maximum number of pending operator operations
	MaxQueueSize = 1000

	// MaxBatchSize is the maximum number of operations in one batch request
	MaxBatchSize = 100

	// MaxRequestBodySize is the maximum trigger request body in bytes
	MaxRequestBodySize = 1 << 20
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
