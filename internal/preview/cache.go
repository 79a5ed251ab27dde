package preview

import (
	"image"
	"sync"
	"time"

	"raf-importer/internal/metrics"
	"raf-importer/internal/raf"
)

// Thumbnail is a decoded preview with its resolved rotation attached.
// Immutable once stored.
type Thumbnail struct {
	Image       image.Image
	Orientation raf.Orientation
	CaptureTime time.Time
}

// Cache maps a raw file path to its decoded preview. Once populated an
// entry is the single source of truth for that path until Clear. Safe
// for concurrent use by decode workers and readers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Thumbnail
	bytes   int64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Thumbnail)}
}

// Get returns the cached thumbnail for path without blocking on decodes.
func (c *Cache) Get(path string) (Thumbnail, bool) {
	c.mu.RLock()
	t, ok := c.entries[path]
	c.mu.RUnlock()

	if ok {
		metrics.PreviewCacheHits.Inc()
	} else {
		metrics.PreviewCacheMisses.Inc()
	}
	return t, ok
}

// Put stores the thumbnail for path. Re-putting a path replaces the
// entry, last writer wins.
func (c *Cache) Put(path string, t Thumbnail) {
	size := imageBytes(t.Image)

	c.mu.Lock()
	if old, ok := c.entries[path]; ok {
		c.bytes -= imageBytes(old.Image)
	}
	c.entries[path] = t
	c.bytes += size
	entries, bytes := len(c.entries), c.bytes
	c.mu.Unlock()

	metrics.PreviewCacheEntries.Set(float64(entries))
	metrics.PreviewCacheBytes.Set(float64(bytes))
}

// Clear drops every entry. Called when the active directory changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Thumbnail)
	c.bytes = 0
	c.mu.Unlock()

	metrics.PreviewCacheEntries.Set(0)
	metrics.PreviewCacheBytes.Set(0)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Bytes returns the approximate decoded footprint of all entries.
func (c *Cache) Bytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytes
}

// imageBytes approximates decoded size at four bytes per pixel.
func imageBytes(img image.Image) int64 {
	if img == nil {
		return 0
	}
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}
