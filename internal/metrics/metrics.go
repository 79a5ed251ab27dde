package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raf_importer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Preview pipeline metrics
var (
	PreviewDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_preview_decodes_total",
			Help: "Total number of embedded preview decodes",
		},
		[]string{"status"},
	)

	PreviewDecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raf_importer_preview_decode_duration_seconds",
			Help:    "Embedded preview decode duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	PreviewCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raf_importer_preview_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
	)

	PreviewCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raf_importer_preview_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
	)

	PreviewCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_preview_cache_entries",
			Help: "Number of previews in the cache",
		},
	)

	PreviewCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_preview_cache_bytes",
			Help: "Approximate decoded size of the preview cache in bytes",
		},
	)
)

// Batch loader metrics
var (
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_batches_total",
			Help: "Total number of preview batches by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled"
	)

	BatchRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_batch_running",
			Help: "Whether a preview batch is currently running (1 = running, 0 = idle)",
		},
	)

	BatchLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_batch_last_duration_seconds",
			Help: "Duration of the last preview batch in seconds",
		},
	)

	BatchLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_batch_last_timestamp",
			Help: "Unix timestamp of the last preview batch completion",
		},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_batch_items_total",
			Help: "Total number of batch items by result",
		},
		[]string{"result"}, // "loaded", "cached", "failed"
	)

	BatchThrottleSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raf_importer_batch_throttle_seconds_total",
			Help: "Total time batch dispatch spent paused on memory backpressure",
		},
	)
)

// Export pipeline metrics
var (
	ExportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_export_jobs_total",
			Help: "Total number of export jobs by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled"
	)

	ExportFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_export_files_total",
			Help: "Total number of exported files by status",
		},
		[]string{"status"}, // "succeeded", "failed"
	)

	ExportFileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raf_importer_export_file_duration_seconds",
			Help:    "Per-file develop+encode+write duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ExportJobRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_export_job_running",
			Help: "Whether an export job is currently running (1 = running, 0 = idle)",
		},
	)
)

// Library metrics
var (
	LibraryFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_library_files",
			Help: "Number of raw files in the active library directory",
		},
	)

	LibraryRatedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_library_rated_files",
			Help: "Number of files with a rating above zero",
		},
	)

	LibrarySimilarGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_library_similar_groups",
			Help: "Number of similar-frame groups at the configured threshold",
		},
	)

	RatingOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_rating_ops_total",
			Help: "Total number of rating store operations",
		},
		[]string{"operation", "status"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raf_importer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raf_importer_fs_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_fs_operation_errors_total",
			Help: "Total number of filesystem operation errors",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_fs_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raf_importer_fs_stale_errors_total",
			Help: "Total number of stale NFS handle errors observed",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_memory_used_bytes",
			Help: "Heap bytes in use as sampled by the memory monitor",
		},
	)

	MemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raf_importer_memory_limit_bytes",
			Help: "Effective memory limit (GOMEMLIMIT or total system memory)",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raf_importer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
