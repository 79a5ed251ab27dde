package preview

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Result is one settled item of a batch. Position is the item's index
// in submission order, independent of completion order.
type Result struct {
	Position  int
	Path      string
	Thumbnail Thumbnail
	Cached    bool
	Err       error
}

// Stats is a point-in-time snapshot of batch progress. Percent tracks
// dispatch, not completion, so it can reach 100 while the last decodes
// are still running.
type Stats struct {
	ID         string `json:"id"`
	Total      int    `json:"total"`
	Dispatched int    `json:"dispatched"`
	Loaded     int    `json:"loaded"`
	Cached     int    `json:"cached"`
	Failed     int    `json:"failed"`
	Percent    int    `json:"percent"`
	Cancelled  bool   `json:"cancelled"`
}

// Batch is one submitted load of an ordered file list.
//
// Results delivers settled items in completion order, tagged with their
// original positions, and closes once the batch is done. Progress
// delivers the dispatch percentage, monotonically non-decreasing,
// coalescing intermediate values when the consumer lags. Done closes
// after every dispatched item has settled.
type Batch struct {
	id    string
	paths []string

	ctx      context.Context
	cancelFn context.CancelFunc

	results  chan Result
	progress chan int
	done     chan struct{}

	pending sync.WaitGroup

	dispatched atomic.Int64
	loaded     atomic.Int64
	cached     atomic.Int64
	failed     atomic.Int64
	cancelled  atomic.Bool
}

func newBatch(paths []string) *Batch {
	ctx, cancel := context.WithCancel(context.Background())
	return &Batch{
		id:       uuid.New().String(),
		paths:    paths,
		ctx:      ctx,
		cancelFn: cancel,
		results:  make(chan Result, len(paths)),
		progress: make(chan int, 1),
		done:     make(chan struct{}),
	}
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.id }

// Size returns the number of submitted items.
func (b *Batch) Size() int { return len(b.paths) }

// Results returns the settled-item stream.
func (b *Batch) Results() <-chan Result { return b.results }

// Progress returns the dispatch-percentage stream.
func (b *Batch) Progress() <-chan int { return b.progress }

// Done closes once all dispatched items have settled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Cancel stops further dispatches. Items already handed to a worker run
// to completion and still emit their results. Safe to call repeatedly,
// concurrently, and on an already-completed batch.
func (b *Batch) Cancel() {
	select {
	case <-b.done:
		return
	default:
	}
	if b.cancelled.CompareAndSwap(false, true) {
		b.cancelFn()
	}
}

// Cancelled reports whether Cancel was observed before completion.
func (b *Batch) Cancelled() bool { return b.cancelled.Load() }

// Stats returns a progress snapshot.
func (b *Batch) Stats() Stats {
	return Stats{
		ID:         b.id,
		Total:      len(b.paths),
		Dispatched: int(b.dispatched.Load()),
		Loaded:     int(b.loaded.Load()),
		Cached:     int(b.cached.Load()),
		Failed:     int(b.failed.Load()),
		Percent:    b.percent(),
		Cancelled:  b.cancelled.Load(),
	}
}

func (b *Batch) percent() int {
	total := len(b.paths)
	if total == 0 {
		return 100
	}
	return int(b.dispatched.Load()) * 100 / total
}

// emit never blocks: results is buffered for one entry per item and
// each position settles at most once.
func (b *Batch) emit(r Result) {
	b.results <- r
}

// publishProgress pushes the current percentage, displacing a stale
// unconsumed value. Single producer; values only grow.
func (b *Batch) publishProgress() {
	pct := b.percent()
	for {
		select {
		case b.progress <- pct:
			return
		default:
		}
		select {
		case <-b.progress:
		default:
		}
	}
}

// finish publishes the final percentage and closes the streams. Called
// exactly once, after all dispatched items have settled.
func (b *Batch) finish() {
	b.publishProgress()
	close(b.progress)
	close(b.results)
	close(b.done)
}
