package preview

import (
	"context"
	"sync"
	"time"

	"raf-importer/internal/logging"
	"raf-importer/internal/memory"
	"raf-importer/internal/metrics"
	"raf-importer/internal/raf"
)

// DefaultWorkers is the decode pool size when none is configured.
const DefaultWorkers = 4

// job carries one dispatched item to the decode workers.
type job struct {
	batch    *Batch
	position int
	path     string
}

// Loader fills the cache through a fixed pool of decode workers. One
// batch is active at a time: Load cancels the previous batch and waits
// for its in-flight decodes to settle before dispatching, so at most
// one decode per path is ever running.
type Loader struct {
	source  raf.PreviewSource
	cache   *Cache
	monitor *memory.Monitor

	jobs       chan job
	workersWG  sync.WaitGroup
	dispatchWG sync.WaitGroup

	loadMu sync.Mutex
	mu     sync.Mutex
	active *Batch
	closed bool
}

// NewLoader starts workers goroutines consuming decode jobs. monitor
// may be nil to disable memory backpressure.
func NewLoader(source raf.PreviewSource, cache *Cache, monitor *memory.Monitor, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	l := &Loader{
		source:  source,
		cache:   cache,
		monitor: monitor,
		jobs:    make(chan job),
	}
	for i := 0; i < workers; i++ {
		l.workersWG.Add(1)
		go l.worker(i)
	}
	logging.Debug("Preview loader started with %d workers", workers)
	return l
}

// Load submits an ordered file list, replacing the active batch. The
// previous batch is cancelled and joined first, so results from it can
// no longer arrive once Load returns.
func (l *Loader) Load(paths []string) *Batch {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	if l.isClosed() {
		logging.Warn("Load called on closed loader")
		b := newBatch(nil)
		b.cancelled.Store(true)
		b.finish()
		return b
	}

	if prev := l.Active(); prev != nil {
		prev.Cancel()
		<-prev.Done()
		logging.Debug("Batch %s replaced", prev.ID())
	}

	b := newBatch(paths)
	l.setActive(b)

	l.dispatchWG.Add(1)
	go l.dispatch(b)
	return b
}

// Active returns the most recently submitted batch, nil before the
// first Load.
func (l *Loader) Active() *Batch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Close cancels the active batch, waits for it to settle, and stops the
// workers. The loader must not be used afterwards.
func (l *Loader) Close() {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	if b := l.Active(); b != nil {
		b.Cancel()
		<-b.Done()
	}
	l.dispatchWG.Wait()
	close(l.jobs)
	l.workersWG.Wait()
	logging.Debug("Preview loader stopped")
}

func (l *Loader) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loader) setActive(b *Batch) {
	l.mu.Lock()
	l.active = b
	l.mu.Unlock()
}

// dispatch walks the batch in submission order. Cache hits emit without
// consuming a worker slot; misses hand the item to the pool. The
// cooperative cancellation point sits between iterations.
func (l *Loader) dispatch(b *Batch) {
	defer l.dispatchWG.Done()

	start := time.Now()
	metrics.BatchRunning.Set(1)
	logging.Info("Batch %s: loading %d previews", b.id, len(b.paths))

dispatchLoop:
	for i, path := range b.paths {
		select {
		case <-b.ctx.Done():
			break dispatchLoop
		default:
		}

		if l.monitor != nil {
			throttleStart := time.Now()
			if err := l.monitor.Throttle(b.ctx); err != nil {
				break dispatchLoop
			}
			if waited := time.Since(throttleStart); waited > time.Millisecond {
				metrics.BatchThrottleSeconds.Add(waited.Seconds())
				logging.Debug("Batch %s throttled %v before item %d", b.id, waited, i)
			}
		}

		if thumb, ok := l.cache.Get(path); ok {
			b.cached.Add(1)
			b.dispatched.Add(1)
			b.emit(Result{Position: i, Path: path, Thumbnail: thumb, Cached: true})
			b.publishProgress()
			metrics.BatchItemsTotal.WithLabelValues("cached").Inc()
			continue
		}

		b.pending.Add(1)
		select {
		case l.jobs <- job{batch: b, position: i, path: path}:
			b.dispatched.Add(1)
			b.publishProgress()
		case <-b.ctx.Done():
			b.pending.Done()
			break dispatchLoop
		}
	}

	b.pending.Wait()
	b.finish()

	outcome := "completed"
	if b.cancelled.Load() {
		outcome = "cancelled"
	}
	metrics.BatchesTotal.WithLabelValues(outcome).Inc()
	metrics.BatchRunning.Set(0)
	metrics.BatchLastDuration.Set(time.Since(start).Seconds())
	metrics.BatchLastTimestamp.SetToCurrentTime()
	logging.Info("Batch %s %s: %d loaded, %d cached, %d failed of %d in %v",
		b.id, outcome, b.loaded.Load(), b.cached.Load(), b.failed.Load(), len(b.paths), time.Since(start))
}

func (l *Loader) worker(id int) {
	defer l.workersWG.Done()
	logging.Debug("Preview worker %d started", id)

	for j := range l.jobs {
		l.process(j)
		j.batch.pending.Done()
	}

	logging.Debug("Preview worker %d finished", id)
}

// process decodes one item. A started decode runs to completion even if
// the batch is cancelled meanwhile; the decode boundary is not
// preemptible mid-call, and its result is still emitted.
func (l *Loader) process(j job) {
	b := j.batch
	start := time.Now()

	img, meta, err := l.source.LoadPreview(context.Background(), j.path)
	if err != nil {
		b.failed.Add(1)
		logging.Warn("Preview decode failed for %s: %v", j.path, err)
		b.emit(Result{Position: j.position, Path: j.path, Err: err})
		metrics.PreviewDecodesTotal.WithLabelValues("error").Inc()
		metrics.BatchItemsTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.PreviewDecodesTotal.WithLabelValues("success").Inc()
	metrics.PreviewDecodeDuration.Observe(time.Since(start).Seconds())

	orient := raf.ResolveOrientation(meta.Orientation,
		meta.SensorWidth, meta.SensorHeight,
		img.Bounds().Dx(), img.Bounds().Dy())
	thumb := Thumbnail{Image: img, Orientation: orient, CaptureTime: meta.CaptureTime}

	l.cache.Put(j.path, thumb)
	b.loaded.Add(1)
	b.emit(Result{Position: j.position, Path: j.path, Thumbnail: thumb})
	metrics.BatchItemsTotal.WithLabelValues("loaded").Inc()
}
