package library

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"raf-importer/internal/logging"
	"raf-importer/internal/metrics"
)

// DefaultDebounce is how long the watcher waits for a burst of events
// to settle before signalling a change. Copying a card in touches the
// directory hundreds of times; one notification is enough.
const DefaultDebounce = 200 * time.Millisecond

// Watcher coalesces filesystem events for raw files in one directory
// into change notifications on Changes.
type Watcher struct {
	dir     string
	delay   time.Duration
	changes chan struct{}
	stop    chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher prepares a watcher for dir. Start must be called before
// any notifications arrive.
func NewWatcher(dir string, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Watcher{
		dir:     dir,
		delay:   delay,
		changes: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Changes delivers at most one pending notification; bursts coalesce.
// The channel is closed by Stop.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		metrics.WatcherErrors.Inc()
		if closeErr := fsw.Close(); closeErr != nil {
			logging.Error("failed to close file watcher: %v", closeErr)
		}
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.wg.Add(1)
	go w.run(fsw)
	logging.Debug("Watching %s for raw file changes", w.dir)
	return nil
}

// Stop ends the watch and closes Changes once the event loop drains.
// Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.wg.Wait()
		close(w.changes)
	})
}

func (w *Watcher) run(fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer func() {
		if err := fsw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
				pending = timer.C
			} else {
				timer.Reset(w.delay)
			}

		case <-pending:
			timer = nil
			pending = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-w.stop:
			return
		}
	}
}

// relevant records the event and decides whether it should trigger a
// reload. Writes fire repeatedly while a file is being copied in; the
// create or rename around them is what matters.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".raf")
}

// eventType returns the metric label for an fsnotify operation.
func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
