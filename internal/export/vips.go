package export

import (
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"raf-importer/internal/logging"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
)

// InitVips starts libvips with conservative cache settings and routes
// its log output through the application logger. Safe to call more
// than once; only the first call does anything.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	threshold := vips.LogLevelWarning
	switch logging.GetLevel() {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	case logging.LevelError:
		threshold = vips.LogLevelCritical
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[vips.%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[vips.%s] %s", domain, msg)
		default:
			logging.Debug("[vips.%s] %s", domain, msg)
		}
	}, threshold)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
	})

	vipsInitialized = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources at process exit.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if !vipsInitialized {
		return
	}
	vips.Shutdown()
	vipsInitialized = false
	logging.Info("libvips shut down")
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}
