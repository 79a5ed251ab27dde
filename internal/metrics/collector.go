package metrics

import (
	"time"

	"raf-importer/internal/logging"
)

// StatsProvider reports library statistics for periodic collection
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	TotalFiles    int
	RatedFiles    int
	CachedEntries int
	CacheBytes    int64
	SimilarGroups int
}

// Collector periodically collects and updates library gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryFiles.Set(float64(stats.TotalFiles))
	LibraryRatedFiles.Set(float64(stats.RatedFiles))
	LibrarySimilarGroups.Set(float64(stats.SimilarGroups))
	PreviewCacheEntries.Set(float64(stats.CachedEntries))
	PreviewCacheBytes.Set(float64(stats.CacheBytes))

	logging.Debug("Metrics collected: files=%d, rated=%d, cached=%d, groups=%d",
		stats.TotalFiles, stats.RatedFiles, stats.CachedEntries, stats.SimilarGroups)
}
