package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"raf-importer/internal/logging"
	"raf-importer/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	LibraryDir          string
	ExportDir           string
	Port                string
	MetricsPort         string
	DecodeWorkers       int
	ExportWorkers       int
	JPEGQuality         int
	RawDecoder          string
	VipsEnabled         bool
	SimilarityThreshold int
	WatchEnabled        bool
	WatchDebounce       time.Duration
	MemoryCriticalPct   int
	LogHealthChecks     bool
	MetricsEnabled      bool

	// ExportReady reports whether the default export directory is
	// writable. Exports to per-request destinations still work.
	ExportReady bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	libraryDir := getEnv("LIBRARY_DIR", "/photos")
	exportDir := getEnv("EXPORT_DIR", "/export")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	decodeWorkers := getEnvInt("DECODE_WORKERS", workers.ForCPU(4), 1, 32)
	exportWorkers := getEnvInt("EXPORT_WORKERS", 1, 1, 16)
	jpegQuality := getEnvInt("JPEG_QUALITY", 95, 1, 100)
	rawDecoder := getEnv("RAW_DECODER", "dcraw")
	vipsEnabled := getEnvBool("VIPS_ENABLED", true)
	similarityThreshold := getEnvInt("SIMILARITY_THRESHOLD", 10, 0, 64)
	watchEnabled := getEnvBool("WATCH_ENABLED", true)
	watchDebounceStr := getEnv("WATCH_DEBOUNCE", "200ms")
	memoryCriticalPct := getEnvInt("MEMORY_CRITICAL_PCT", 85, 50, 99)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  LIBRARY_DIR:          %s", libraryDir)
	logging.Info("  EXPORT_DIR:           %s", exportDir)
	logging.Info("  PORT:                 %s", port)
	logging.Info("  METRICS_PORT:         %s", metricsPort)
	logging.Info("  METRICS_ENABLED:      %v", metricsEnabled)
	logging.Info("  DECODE_WORKERS:       %d", decodeWorkers)
	logging.Info("  EXPORT_WORKERS:       %d", exportWorkers)
	logging.Info("  JPEG_QUALITY:         %d", jpegQuality)
	logging.Info("  RAW_DECODER:          %s", rawDecoder)
	logging.Info("  VIPS_ENABLED:         %v", vipsEnabled)
	logging.Info("  SIMILARITY_THRESHOLD: %d", similarityThreshold)
	logging.Info("  WATCH_ENABLED:        %v", watchEnabled)
	logging.Info("  WATCH_DEBOUNCE:       %s", watchDebounceStr)
	logging.Info("  MEMORY_CRITICAL_PCT:  %d", memoryCriticalPct)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	watchDebounce, err := time.ParseDuration(watchDebounceStr)
	if err != nil || watchDebounce <= 0 {
		logging.Warn("  Invalid WATCH_DEBOUNCE, using default: 200ms")
		watchDebounce = 200 * time.Millisecond
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	libraryDir, err = filepath.Abs(libraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	logging.Info("  Library directory (absolute): %s", libraryDir)

	exportDir, err = filepath.Abs(exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export directory path: %w", err)
	}
	logging.Info("  Export directory (absolute):  %s", exportDir)

	// A missing library directory is a warning only: the card may be
	// mounted later and opened through the API.
	if err := ensureDirectory(libraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	config := &Config{
		LibraryDir:          libraryDir,
		ExportDir:           exportDir,
		Port:                port,
		MetricsPort:         metricsPort,
		DecodeWorkers:       decodeWorkers,
		ExportWorkers:       exportWorkers,
		JPEGQuality:         jpegQuality,
		RawDecoder:          rawDecoder,
		VipsEnabled:         vipsEnabled,
		SimilarityThreshold: similarityThreshold,
		WatchEnabled:        watchEnabled,
		WatchDebounce:       watchDebounce,
		MemoryCriticalPct:   memoryCriticalPct,
		LogHealthChecks:     logHealthChecks,
		MetricsEnabled:      metricsEnabled,
	}

	config.ExportReady = setupOptionalDir(exportDir, "export")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Previews:   ENABLED (required)")
	logging.Info("    Export:     %s", enabledString(config.ExportReady))
	logging.Info("    Watcher:    %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:    %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be degraded", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be degraded", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDecoderInit logs raw decoder initialization and checks the binary
func LogDecoderInit(command string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RAW DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if err := checkDecoder(command); err != nil {
		logging.Warn("  Decoder check failed: %v", err)
		logging.Warn("  Full-quality export will fail; embedded previews still work")
	} else {
		logging.Info("  [OK] %s is available", command)
	}
}

// LogEncoderInit logs which JPEG encoder the export pipeline uses
func LogEncoderInit(vipsEnabled bool) {
	if vipsEnabled {
		logging.Info("  Export encoding: libvips")
	} else {
		logging.Info("  Export encoding: pure Go (set VIPS_ENABLED=true for libvips)")
	}
}

// LogSessionInit logs the start of the initial library scan
func LogSessionInit(dir string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY SESSION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Opening library: %s", dir)
}

// LogSessionReady logs a successful initial open
func LogSessionReady(files int, duration time.Duration) {
	logging.Info("  [OK] %d raw files listed in %v, thumbnails loading", files, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., the metrics endpoint)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  ___    ______   ____                           __
   / __ \/   |  / ____/  /  _/___ ___  ____  ____  _____/ /____  _____
  / /_/ / /| | / /_      / // __ '__ \/ __ \/ __ \/ ___/ __/ _ \/ ___/
 / _, _/ ___ |/ __/    _/ // / / / / / /_/ / /_/ / /  / /_/  __/ /
/_/ |_/_/  |_/_/      /___/_/ /_/ /_/ .___/\____/_/   \__/\___/_/
                                   /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "library" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			rafCount := 0
			otherCount := 0
			for _, e := range entries {
				if strings.EqualFold(filepath.Ext(e.Name()), ".raf") {
					rafCount++
				} else {
					otherCount++
				}
			}
			logging.Debug("    Contents: %d raw files, %d other entries (top level)", rafCount, otherCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

// checkDecoder verifies the raw decoder binary exists and answers.
// dcraw has no version flag; invoked bare it prints a usage header and
// exits nonzero, so only a missing binary counts as a failure.
func checkDecoder(command string) error {
	path, err := exec.LookPath(command)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", command)
	}
	logging.Debug("  Decoder path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, _ := exec.CommandContext(ctx, command).CombinedOutput()
	for _, line := range strings.Split(string(output), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			logging.Debug("  Decoder banner: %s", trimmed)
			break
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue, min, max int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	if parsed < min || parsed > max {
		logging.Warn("%s=%d outside [%d,%d], using default: %d", key, parsed, min, max, defaultValue)
		return defaultValue
	}
	return parsed
}
