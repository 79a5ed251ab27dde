// Package metrics provides Prometheus instrumentation for the RAF importer.
//
// This package defines and exposes various metrics that can be scraped by
// Prometheus to monitor the health, performance, and behavior of the
// application. All metrics are prefixed with "raf_importer_" to avoid naming
// collisions with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Preview Pipeline Metrics
//
// Monitor embedded preview decoding and caching:
//   - PreviewDecodesTotal: Counter of decodes by status
//   - PreviewDecodeDuration: Histogram of per-file decode time
//   - PreviewCacheHits / PreviewCacheMisses: Cache effectiveness counters
//   - PreviewCacheEntries / PreviewCacheBytes: Cache size gauges
//
// ## Batch Loader Metrics
//
// Track preview batch loading:
//   - BatchesTotal: Counter of batches by outcome (completed/cancelled)
//   - BatchRunning: Gauge indicating an active batch
//   - BatchLastDuration / BatchLastTimestamp: Last batch gauges
//   - BatchItemsTotal: Counter of items by result (loaded/cached/failed)
//   - BatchThrottleSeconds: Counter of time paused on memory backpressure
//
// ## Export Pipeline Metrics
//
// Monitor rating-driven JPEG export:
//   - ExportJobsTotal: Counter of jobs by outcome
//   - ExportFilesTotal: Counter of files by status (succeeded/failed)
//   - ExportFileDuration: Histogram of per-file develop+encode+write time
//   - ExportJobRunning: Gauge indicating an active job
//
// ## Library Metrics
//
// Periodically collected by the Collector from a StatsProvider:
//   - LibraryFiles, LibraryRatedFiles, LibrarySimilarGroups
//   - RatingOpsTotal: Counter of rating operations by status
//
// ## Watcher and Filesystem Metrics
//
//   - WatcherEventsTotal / WatcherErrors
//   - FilesystemOperationDuration / FilesystemOperationErrors
//   - FilesystemRetryAttempts / FilesystemStaleErrors (NFS resilience)
//
// ## Memory Metrics
//
//   - MemoryUsedBytes / MemoryLimitBytes, updated by the memory monitor
//
// # Usage
//
// Metrics register themselves via promauto at package load. Call
// InitializeMetrics once at startup to pre-populate label combinations, and
// expose them with promhttp on /metrics.
package metrics
