// Package metrics defines the Prometheus collectors exported by modelshelf.
// Collectors register with the default registry on import and are served by
// Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modelshelf"

// Reconciliation run metrics.
var (
	// SyncRuns counts finished runs by status (ok, error).
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of reconciliation runs.",
	}, []string{"status"})

	// SyncDuration observes the wall-clock length of a run.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of reconciliation runs in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})

	// EntryChanges counts catalog mutations by action
	// (created, updated, removed, collapsed, edited, deleted).
	EntryChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_changes_total",
		Help:      "Total number of catalog entry changes.",
	}, []string{"action"})

	// PhotoOutcomes counts per-photo results (ok, skipped).
	PhotoOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_outcomes_total",
		Help:      "Photo posts processed by outcome.",
	}, []string{"status"})

	// CatalogEntries is the entry count after the last persisted run.
	CatalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_entries",
		Help:      "Number of entries in the persisted catalog.",
	})

	// LastUpdateID is the persisted update offset.
	LastUpdateID = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_update_id",
		Help:      "Next update offset requested from the channel feed.",
	})
)

// Side effect metrics.
var (
	// Retirements counts channel message deletions by status (ok, failed).
	Retirements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retirements_total",
		Help:      "Channel message retirements by status.",
	}, []string{"status"})

	// AssetFetches counts asset materialization attempts by kind and status.
	AssetFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_fetches_total",
		Help:      "Asset fetches by kind (image, file) and status.",
	}, []string{"kind", "status"})

	// QueueDepth is the number of pending operator operations.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Operator operations waiting for the next run.",
	})
)

// Transport metrics.
var (
	// TransportRequests counts Bot API calls by method and status.
	TransportRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_requests_total",
		Help:      "Bot API requests by method and status.",
	}, []string{"method", "status"})

	// TransportDuration observes Bot API call latency.
	TransportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transport_request_duration_seconds",
		Help:      "Bot API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// FilePathCacheHits counts getFile lookups served from memory.
	FilePathCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_path_cache_hits_total",
		Help:      "getFile lookups served from the in-memory cache.",
	})

	// FilePathCacheMisses counts getFile lookups that reached the API.
	FilePathCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_path_cache_misses_total",
		Help:      "getFile lookups that required an API call.",
	})
)

// Trigger server metrics.
var (
	// HTTPRequests counts trigger requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Trigger server requests.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes trigger request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Trigger server request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Status maps an error to the "ok"/"error" label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
