// Package main provides the entry point for the RAF Importer application.
//
// RAF Importer is a self-hosted culling service for Fujifilm RAF shoots. It
// loads the embedded previews of a card directory into an in-memory thumbnail
// cache, lets a client rate frames over HTTP, groups near-duplicate frames by
// perceptual hash, and develops the keepers to full-quality JPEGs.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Component Initialization:
//     - Raw Decoder: Verifies the configured dcraw-compatible command is on PATH
//     - Export Encoder: Initializes libvips, falling back to the pure-Go encoder
//     - Memory Monitor: Tracks system memory pressure for decode throttling
//     - Session: Preview cache, decode pool, ratings, similarity index, exporter
//  4. Initial Open: Scans LIBRARY_DIR and starts the preview batch; a failed
//     open keeps the API up so a later mount can be opened over HTTP
//  5. HTTP Server Setup: Configures routes, middleware, and starts servers
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # Background Services
//
// Several goroutines run throughout the application lifecycle:
//
//   - Decode Pool: Loads embedded previews for the active batch
//   - Directory Watcher: Debounced fsnotify reloads of the open directory
//   - Metrics Collector: Updates library gauges every 15 seconds
//   - Memory Monitor: Samples memory pressure every 2 seconds
//
// # Memory Management
//
// The application implements multi-tier memory management:
//
//   - Container-aware GOMEMLIMIT configuration (80% of cgroup limit)
//   - Watermark monitor that pauses preview dispatch while memory is critical
//   - Bounded decode pool sized by DECODE_WORKERS
//   - libvips export encoding, which streams instead of holding full frames
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Library open, listing, status, reload, and cancel
//     - Thumbnail serving from the preview cache
//     - Rating reads and writes with rating-filtered listings
//     - Export start, status, and cancel
//     - Similarity groups for duplicate culling
//     - Health, readiness, and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - LIBRARY_DIR: Directory of RAF files opened at startup (default: /photos)
//   - EXPORT_DIR: Default destination for developed JPEGs (default: /export)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - DECODE_WORKERS: Preview decode pool size (default: one per CPU, max 4)
//   - EXPORT_WORKERS: Parallel develop processes (default: 1)
//   - JPEG_QUALITY: Export JPEG quality (default: 95)
//   - RAW_DECODER: dcraw-compatible decoder command (default: dcraw)
//   - VIPS_ENABLED: Use libvips for export encoding (default: true)
//   - SIMILARITY_THRESHOLD: Max hash distance within a group (default: 10)
//   - WATCH_ENABLED: Watch the open directory for changes (default: true)
//   - WATCH_DEBOUNCE: Watcher settle delay (default: 200ms)
//   - MEMORY_CRITICAL_PCT: Heap percent that pauses preview dispatch (default: 85)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT: Memory limit (auto-detected from cgroups if not set)
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Stop metrics collector
//  2. Close the session (cancel the preview batch, join the decode pool,
//     cancel any export, stop the watcher)
//  3. Stop memory monitor
//  4. Shutdown metrics server (if running)
//  5. Shutdown main HTTP server (30s timeout)
//
// # Build Requirements
//
// The application requires CGO for libvips; everything else is pure Go:
//
//   - libvips: Fast, memory-efficient JPEG encoding for export
//   - dcraw (runtime): Full-quality raw development; without it the service
//     still serves embedded previews, only export is degraded
//
// Set VIPS_ENABLED=false to run a CGO-free build with the pure-Go encoder.
//
// # Related Packages
//
//   - [raf-importer/internal/library]: Session tying the pipelines together
//   - [raf-importer/internal/preview]: Thumbnail cache and decode batches
//   - [raf-importer/internal/raf]: RAF container parsing and raw development
//   - [raf-importer/internal/export]: Develop-and-encode pipeline
//   - [raf-importer/internal/similar]: Perceptual-hash duplicate grouping
//   - [raf-importer/internal/handlers]: HTTP request handlers
//   - [raf-importer/internal/startup]: Configuration and initialization
package main
