// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - LIBRARY_DIR: Path to the directory of raw files (default: /photos)
//   - EXPORT_DIR: Default destination for developed JPEGs (default: /export)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DECODE_WORKERS: Preview decode pool size (default: one per CPU, max 4)
//   - EXPORT_WORKERS: Export develop/encode pool size (default: 1)
//   - JPEG_QUALITY: Export JPEG quality 1-100 (default: 95)
//   - RAW_DECODER: External raw decoder command (default: dcraw)
//   - VIPS_ENABLED: Encode exports through libvips (default: true)
//   - SIMILARITY_THRESHOLD: Max perceptual hash distance for grouping (default: 10)
//   - WATCH_ENABLED: Watch the library directory for changes (default: true)
//   - WATCH_DEBOUNCE: Quiet period before reacting to changes (default: 200ms)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_CRITICAL_PCT: Heap percent of GOMEMLIMIT that pauses preview dispatch (default: 85)
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Percentage of MEMORY_LIMIT for Go heap (default: 0.85)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Library directory: Checked but only warned about (usually a mounted card)
//   - Export directory: Optional, exports degrade to per-request destinations
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDecoderInit]: Raw decoder availability check
//   - [LogSessionInit]: Initial library open
//   - [LogSessionReady]: Initial scan result and timing
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDecoderInit(config.RawDecoder)
//
//	startup.LogSessionInit(config.LibraryDir)
//	// open the session...
//	startup.LogSessionReady(len(session.Files()), time.Since(openStart))
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
