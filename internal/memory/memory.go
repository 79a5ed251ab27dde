package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"raf-importer/internal/logging"
	"raf-importer/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of limit below which a pause lifts (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which dispatch pauses entirely (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory monitoring
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0, // Use GOMEMLIMIT if set
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Stats is a point-in-time view of monitored memory state
type Stats struct {
	Used   int64   `json:"used"`
	Limit  int64   `json:"limit"`
	Ratio  float64 `json:"ratio"`
	Paused bool    `json:"paused"`
}

// Monitor tracks heap usage against a limit and provides backpressure for
// the preview dispatch loop. Decoded previews pile up faster than a browser
// fetches them, so dispatch pauses while usage sits above the critical
// watermark and resumes below the high watermark.
type Monitor struct {
	config   Config
	limit    int64
	stopOnce sync.Once
	stopChan chan struct{}

	mu        sync.RWMutex
	current   uint64
	isPaused  bool
	pauseChan chan struct{}
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	// Resume must sit below pause or the paused flag oscillates
	if config.HighWaterMark >= config.CriticalWaterMark {
		config.HighWaterMark = config.CriticalWaterMark - 0.15
	}

	limit := config.MemoryLimitBytes

	// If no explicit limit, try to get GOMEMLIMIT
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}

	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, backpressure disabled")
	} else {
		metrics.MemoryLimitBytes.Set(float64(limit))
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		stopChan:  make(chan struct{}),
		pauseChan: make(chan struct{}),
	}
}

// Start begins monitoring memory usage
func (m *Monitor) Start() {
	if m.limit == 0 {
		return // No limit configured, nothing to monitor
	}

	go m.monitorLoop()
}

// Stop stops the memory monitor and releases any Throttle waiters.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	m.current = stats.HeapAlloc
	metrics.MemoryUsedBytes.Set(float64(stats.HeapAlloc))

	usage := float64(stats.HeapAlloc) / float64(m.limit)
	switch {
	case usage >= m.config.CriticalWaterMark && !m.isPaused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing preview dispatch", usage*100)
		m.isPaused = true
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.isPaused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming preview dispatch", usage*100)
		m.isPaused = false
		close(m.pauseChan)
		m.pauseChan = make(chan struct{})
	}
	m.mu.Unlock()
}

// Throttle blocks while memory usage is above the critical watermark.
// It returns nil once dispatch may proceed, or the context error if ctx is
// cancelled first. With no limit configured it returns immediately.
func (m *Monitor) Throttle(ctx context.Context) error {
	for {
		m.mu.RLock()
		paused := m.isPaused
		pauseChan := m.pauseChan
		m.mu.RUnlock()

		if !paused {
			return nil
		}

		select {
		case <-pauseChan:
			// Re-check; a fresh sample may have paused again
		case <-m.stopChan:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// IsPaused returns true if dispatch should currently be paused
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Snapshot returns current memory statistics
func (m *Monitor) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	used := int64(math.MaxInt64)
	if m.current <= math.MaxInt64 {
		used = int64(m.current)
	}

	var ratio float64
	if m.limit > 0 {
		ratio = float64(m.current) / float64(m.limit)
	}

	return Stats{Used: used, Limit: m.limit, Ratio: ratio, Paused: m.isPaused}
}
