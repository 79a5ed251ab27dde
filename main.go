package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raf-importer/internal/export"
	"raf-importer/internal/filesystem"
	"raf-importer/internal/handlers"
	"raf-importer/internal/library"
	"raf-importer/internal/logging"
	"raf-importer/internal/memory"
	"raf-importer/internal/metrics"
	"raf-importer/internal/middleware"
	"raf-importer/internal/raf"
	"raf-importer/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Configure GOMEMLIMIT from the container limit
	memory.ConfigureFromEnv()

	// Initialize metrics with zero values so dashboards have data
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Raw decoder and export encoder
	startup.LogDecoderInit(config.RawDecoder)

	vipsActive := false
	if config.VipsEnabled {
		export.InitVips()
		vipsActive = export.IsVipsAvailable()
	}
	var encoder export.Encoder
	if vipsActive {
		encoder = export.VipsEncoder{}
	} else {
		encoder = export.StdEncoder{}
	}
	startup.LogEncoderInit(vipsActive)

	// Memory backpressure for the decode pool
	memConfig := memory.DefaultConfig()
	memConfig.CriticalWaterMark = float64(config.MemoryCriticalPct) / 100
	monitor := memory.NewMonitor(memConfig)
	monitor.Start()

	session := library.NewSession(library.Config{
		Source:        raf.EmbeddedPreviewSource{},
		Developer:     raf.NewDeveloper(config.RawDecoder),
		Encoder:       encoder,
		DecodeWorkers: config.DecodeWorkers,
		ExportWorkers: config.ExportWorkers,
		JPEGQuality:   config.JPEGQuality,
		Threshold:     config.SimilarityThreshold,
		Monitor:       monitor,
	})

	h := handlers.New(session, config)

	// Initial open. Failure keeps the API up for a later open, for
	// example once the card is mounted.
	startup.LogSessionInit(config.LibraryDir)
	openStart := time.Now()
	if files, err := session.Open(config.LibraryDir); err != nil {
		logging.Error("Initial open failed: %v", err)
		h.SetStartupError(err)
	} else {
		startup.LogSessionReady(files, time.Since(openStart))
		if config.WatchEnabled {
			if err := session.StartWatching(config.WatchDebounce); err != nil {
				logging.Warn("Failed to start watcher: %v", err)
			}
		}
	}

	// Periodic library gauges
	collector := metrics.NewCollector(session, 15*time.Second)
	collector.Start()

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	metricsHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(metricsHandler)

	// Apply compression middleware
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	// Create servers
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, session, collector, monitor)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Same checks under the API prefix for proxied deployments
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Library
	api.HandleFunc("/library", h.OpenLibrary).Methods("POST")
	api.HandleFunc("/library", h.ListFiles).Methods("GET")
	api.HandleFunc("/library/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/library/reload", h.ReloadLibrary).Methods("POST")
	api.HandleFunc("/library/cancel", h.CancelLoad).Methods("POST")

	// Thumbnails
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")

	// Ratings
	api.HandleFunc("/rating", h.SetRating).Methods("PUT")
	api.HandleFunc("/rating", h.GetRating).Methods("GET")
	api.HandleFunc("/ratings", h.ListRatings).Methods("GET")
	api.HandleFunc("/files", h.FilterFiles).Methods("GET")

	// Export
	api.HandleFunc("/export", h.StartExport).Methods("POST")
	api.HandleFunc("/export", h.GetExportStatus).Methods("GET")
	api.HandleFunc("/export/status", h.GetExportStatus).Methods("GET")
	api.HandleFunc("/export/cancel", h.CancelExport).Methods("POST")

	// Similarity
	api.HandleFunc("/similar", h.GetSimilarGroups).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, session *library.Session, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing session")
	session.Close()
	startup.LogShutdownStepComplete("Session closed")

	monitor.Stop()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
