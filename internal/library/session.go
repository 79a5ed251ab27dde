package library

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"raf-importer/internal/export"
	"raf-importer/internal/logging"
	"raf-importer/internal/memory"
	"raf-importer/internal/metrics"
	"raf-importer/internal/preview"
	"raf-importer/internal/raf"
	"raf-importer/internal/rating"
	"raf-importer/internal/similar"
)

// DefaultSimilarityThreshold is the Hamming distance under which two
// thumbnails count as the same burst.
const DefaultSimilarityThreshold = 10

var (
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("session is closed")
	// ErrNoDirectory is returned by operations that need an open directory.
	ErrNoDirectory = errors.New("no directory open")
	// ErrUnknownFile rejects paths outside the open directory listing.
	ErrUnknownFile = errors.New("file is not part of the open directory")
	// ErrNoCandidates is returned when an export finds nothing rated.
	ErrNoCandidates = errors.New("no files rated above zero")
)

// Config assembles a session's collaborators. Zero fields fall back to
// production defaults: embedded previews, the dcraw developer, the
// pure-Go encoder.
type Config struct {
	Source        raf.PreviewSource
	Developer     raf.Developer
	Encoder       export.Encoder
	DecodeWorkers int
	ExportWorkers int
	JPEGQuality   int
	Threshold     int
	Monitor       *memory.Monitor
}

// Status is the point-in-time view the API serves.
type Status struct {
	Directory string           `json:"directory"`
	Files     int              `json:"files"`
	Rated     int              `json:"rated"`
	Cached    int              `json:"cached"`
	Batch     *preview.Stats   `json:"batch,omitempty"`
	Export    *export.JobStats `json:"export,omitempty"`
}

// Session is one open directory of raw files together with its
// thumbnail loader, ratings, similarity index, and export pipeline.
// All methods are safe for concurrent use.
type Session struct {
	cache    *preview.Cache
	loader   *preview.Loader
	ratings  *rating.Store
	index    *similar.Index
	exporter *export.Pipeline

	threshold int

	openMu        sync.Mutex
	closed        bool
	watcher       *Watcher
	watchEnabled  bool
	watchDebounce time.Duration

	mu      sync.RWMutex
	dir     string
	files   []string
	fileSet map[string]bool
	batch   *preview.Batch

	watchWG   sync.WaitGroup
	consumeWG sync.WaitGroup
}

// NewSession wires up an empty session; Open gives it a directory.
func NewSession(cfg Config) *Session {
	source := cfg.Source
	if source == nil {
		source = raf.EmbeddedPreviewSource{}
	}
	developer := cfg.Developer
	if developer == nil {
		developer = raf.NewDeveloper("")
	}
	encoder := cfg.Encoder
	if encoder == nil {
		encoder = export.StdEncoder{}
	}
	workers := cfg.DecodeWorkers
	if workers <= 0 {
		workers = preview.DefaultWorkers
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	cache := preview.NewCache()
	return &Session{
		cache:     cache,
		loader:    preview.NewLoader(source, cache, cfg.Monitor, workers),
		ratings:   rating.NewStore(),
		index:     similar.NewIndex(),
		exporter:  export.NewPipeline(developer, encoder, cfg.ExportWorkers, cfg.JPEGQuality),
		threshold: threshold,
	}
}

// Open scans dir and makes it the session's directory. Ratings, cached
// thumbnails, and similarity hashes from the previous directory are
// dropped, and a thumbnail batch for the new listing starts
// immediately. Returns the number of raw files found.
func (s *Session) Open(dir string) (int, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	files, err := Scan(dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}

	if w := s.watcher; w != nil {
		s.watcher = nil
		w.Stop()
	}

	s.settleActiveBatch()

	s.cache.Clear()
	s.ratings.Reset()
	s.index.Clear()

	s.setFiles(dir, files)
	s.trackBatch(s.loader.Load(files))

	if s.watchEnabled {
		if err := s.startWatcherLocked(dir); err != nil {
			logging.Warn("Watching %s failed: %v", dir, err)
		}
	}

	logging.Info("Opened %s: %d raw files", dir, len(files))
	return len(files), nil
}

// Reload re-scans the open directory. Ratings and cached thumbnails
// for files still present survive; entries for files that disappeared
// are pruned. A fresh batch picks up anything uncached.
func (s *Session) Reload() (int, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	s.mu.RLock()
	dir := s.dir
	previous := s.files
	s.mu.RUnlock()
	if dir == "" {
		return 0, ErrNoDirectory
	}

	files, err := Scan(dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}

	s.settleActiveBatch()

	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f] = true
	}
	for _, f := range previous {
		if !current[f] {
			s.ratings.Forget(f)
			s.index.Remove(f)
		}
	}

	s.setFiles(dir, files)
	s.trackBatch(s.loader.Load(files))

	logging.Info("Reloaded %s: %d raw files", dir, len(files))
	return len(files), nil
}

// Dir returns the open directory, empty before the first Open.
func (s *Session) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Files returns the current listing in display order.
func (s *Session) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Status snapshots the session for the API.
func (s *Session) Status() Status {
	s.mu.RLock()
	st := Status{
		Directory: s.dir,
		Files:     len(s.files),
	}
	b := s.batch
	s.mu.RUnlock()

	st.Rated = s.ratings.Len()
	st.Cached = s.cache.Len()

	if b != nil {
		stats := b.Stats()
		st.Batch = &stats
	}
	if job := s.exporter.Active(); job != nil {
		stats := job.Stats()
		st.Export = &stats
	}
	return st
}

// Thumbnail returns the cached thumbnail for path, if loaded.
func (s *Session) Thumbnail(path string) (preview.Thumbnail, bool) {
	return s.cache.Get(path)
}

// CancelLoad cancels the running thumbnail batch. Reports false when
// no batch was running.
func (s *Session) CancelLoad() bool {
	s.mu.RLock()
	b := s.batch
	s.mu.RUnlock()

	if b == nil {
		return false
	}
	select {
	case <-b.Done():
		return false
	default:
		b.Cancel()
		return true
	}
}

// Rate scores a file in the open directory from 0 to 5.
func (s *Session) Rate(path string, value int) error {
	if !s.knows(path) {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	return s.ratings.Set(path, value)
}

// RatingOf returns the rating for path, 0 when unscored.
func (s *Session) RatingOf(path string) int {
	return s.ratings.Get(path)
}

// Ratings returns a copy of every nonzero rating.
func (s *Session) Ratings() map[string]int {
	return s.ratings.All()
}

// Rated returns the paths scored above zero, sorted.
func (s *Session) Rated() []string {
	return s.ratings.Rated()
}

// FilterByMinRating returns the paths rated at least min, sorted. A
// min of zero matches everything, since unscored files rate 0.
func (s *Session) FilterByMinRating(min int) []string {
	if min <= 0 {
		return s.Files()
	}
	return s.ratings.Filter(func(r int) bool { return r >= min })
}

// Export starts an export of every rated file into destDir. workers
// overrides the configured parallelism for this job; zero or less
// keeps the default. At most one job runs at a time; export.ErrBusy
// reports a running job.
func (s *Session) Export(destDir string, workers int) (*export.Job, error) {
	if destDir == "" {
		return nil, errors.New("export destination required")
	}
	candidates := s.ratings.Rated()
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return s.exporter.Export(candidates, destDir, workers)
}

// ExportStatus snapshots the most recent export job, nil before the
// first one.
func (s *Session) ExportStatus() *export.JobStats {
	job := s.exporter.Active()
	if job == nil {
		return nil
	}
	stats := job.Stats()
	return &stats
}

// ExportReport returns the finished report of the most recent export,
// nil while it runs or before the first one.
func (s *Session) ExportReport() *export.Report {
	job := s.exporter.Active()
	if job == nil {
		return nil
	}
	return job.Report()
}

// CancelExport cancels the running export job. Reports false when no
// job was running.
func (s *Session) CancelExport() bool {
	job := s.exporter.Active()
	if job == nil {
		return false
	}
	select {
	case <-job.Done():
		return false
	default:
		job.Cancel()
		return true
	}
}

// Groups clusters the loaded thumbnails by perceptual similarity. A
// negative threshold uses the configured default.
func (s *Session) Groups(threshold int) [][]string {
	if threshold < 0 {
		threshold = s.threshold
	}
	return s.index.Groups(threshold)
}

// StartWatching reloads the session automatically when raw files
// appear or disappear under the open directory. Watching follows the
// session across later Opens.
func (s *Session) StartWatching(debounce time.Duration) error {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()
	if dir == "" {
		return ErrNoDirectory
	}
	if s.watcher != nil {
		return nil
	}

	s.watchEnabled = true
	s.watchDebounce = debounce
	return s.startWatcherLocked(dir)
}

// GetStats implements metrics.StatsProvider.
func (s *Session) GetStats() metrics.Stats {
	s.mu.RLock()
	files := len(s.files)
	s.mu.RUnlock()

	return metrics.Stats{
		TotalFiles:    files,
		RatedFiles:    s.ratings.Len(),
		CachedEntries: s.cache.Len(),
		CacheBytes:    s.cache.Bytes(),
		SimilarGroups: len(s.index.Groups(s.threshold)),
	}
}

// Close cancels the running batch and export, stops watching, and
// joins the decode workers. A cancelled export's in-flight file still
// finishes in the background. Safe to call more than once.
func (s *Session) Close() {
	s.openMu.Lock()
	if s.closed {
		s.openMu.Unlock()
		return
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.openMu.Unlock()

	if w != nil {
		w.Stop()
	}
	s.watchWG.Wait()

	if job := s.exporter.Active(); job != nil {
		job.Cancel()
	}

	s.loader.Close()
	s.consumeWG.Wait()
	logging.Debug("Session closed")
}

// settleActiveBatch cancels the running batch and waits until its
// results, including the similarity consumer, have fully drained.
// Callers hold openMu, so no new batch can start meanwhile.
func (s *Session) settleActiveBatch() {
	s.mu.RLock()
	b := s.batch
	s.mu.RUnlock()

	if b == nil {
		return
	}
	b.Cancel()
	<-b.Done()
	s.consumeWG.Wait()
}

func (s *Session) setFiles(dir string, files []string) {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f] = true
	}

	s.mu.Lock()
	s.dir = dir
	s.files = files
	s.fileSet = set
	s.mu.Unlock()
}

func (s *Session) trackBatch(b *preview.Batch) {
	s.mu.Lock()
	s.batch = b
	s.mu.Unlock()

	s.consumeWG.Add(1)
	go s.consume(b)
}

// consume folds freshly decoded thumbnails into the similarity index.
// Cached results were indexed when first decoded.
func (s *Session) consume(b *preview.Batch) {
	defer s.consumeWG.Done()
	for res := range b.Results() {
		if res.Err != nil || res.Cached {
			continue
		}
		if err := s.index.Add(res.Path, res.Thumbnail.Image); err != nil {
			logging.Debug("Similarity hash failed for %s: %v", res.Path, err)
		}
	}
}

func (s *Session) knows(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileSet[path]
}

func (s *Session) startWatcherLocked(dir string) error {
	w := NewWatcher(dir, s.watchDebounce)
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w

	s.watchWG.Add(1)
	go s.pump(w)
	return nil
}

// pump turns watcher notifications into reloads until the watcher
// stops.
func (s *Session) pump(w *Watcher) {
	defer s.watchWG.Done()
	for range w.Changes() {
		if _, err := s.Reload(); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			logging.Warn("Reload after filesystem change failed: %v", err)
		}
	}
}
