package export

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"raf-importer/internal/logging"
	"raf-importer/internal/metrics"
)

// Progress is emitted once per settled candidate.
type Progress struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Path  string `json:"path"`
}

// JobStats is a point-in-time snapshot of a running or finished job.
type JobStats struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Percent     int    `json:"percent"`
	Running     bool   `json:"running"`
	Cancelled   bool   `json:"cancelled"`
}

// Job tracks one export run. Progress carries one event per settled
// file and is closed together with Done when the run finishes.
type Job struct {
	id      string
	dest    string
	total   int
	started time.Time

	progress chan Progress
	done     chan struct{}

	completed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Bool

	mu     sync.Mutex
	report *Report
}

func newJob(total int, dest string) *Job {
	return &Job{
		id:       uuid.New().String(),
		dest:     dest,
		total:    total,
		started:  time.Now(),
		progress: make(chan Progress, total),
		done:     make(chan struct{}),
	}
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Destination returns the output directory.
func (j *Job) Destination() string {
	return j.dest
}

// Progress returns the per-file event stream. Closed when the job
// finishes; the channel is buffered for the whole run, so a slow or
// absent consumer never stalls exporting.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done is closed once every attempted candidate has settled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel stops the job from picking up further candidates. Files
// already being developed run to completion and still settle into the
// report. Calling Cancel after the job finished has no effect.
func (j *Job) Cancel() {
	select {
	case <-j.done:
		return
	default:
	}
	if j.cancelled.CompareAndSwap(false, true) {
		logging.Info("Export %s: cancel requested", j.id)
	}
}

// Cancelled reports whether Cancel took effect before completion.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

// Report returns the final report, or nil while the job is running.
func (j *Job) Report() *Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// Stats snapshots the job counters.
func (j *Job) Stats() JobStats {
	completed := int(j.completed.Load())
	running := true
	select {
	case <-j.done:
		running = false
	default:
	}
	return JobStats{
		ID:          j.id,
		Destination: j.dest,
		Total:       j.total,
		Completed:   completed,
		Succeeded:   int(j.succeeded.Load()),
		Failed:      int(j.failed.Load()),
		Percent:     j.percent(completed),
		Running:     running,
		Cancelled:   j.cancelled.Load(),
	}
}

func (j *Job) percent(completed int) int {
	if j.total == 0 {
		return 100
	}
	return completed * 100 / j.total
}

// settle folds one attempted candidate into the counters and emits its
// progress event.
func (j *Job) settle(r FileResult) {
	if r.Succeeded() {
		j.succeeded.Add(1)
		metrics.ExportFilesTotal.WithLabelValues("succeeded").Inc()
	} else {
		j.failed.Add(1)
		metrics.ExportFilesTotal.WithLabelValues("failed").Inc()
		logging.Warn("Export %s: %s: %s", j.id, r.Path, r.Error)
	}
	j.progress <- Progress{
		Index: int(j.completed.Add(1)),
		Total: j.total,
		Path:  r.Path,
	}
}

// complete publishes the final report and releases waiters.
func (j *Job) complete(results []FileResult) {
	report := &Report{
		ID:              j.id,
		Destination:     j.dest,
		Total:           j.total,
		Succeeded:       int(j.succeeded.Load()),
		Failed:          int(j.failed.Load()),
		Cancelled:       j.cancelled.Load(),
		DurationSeconds: time.Since(j.started).Seconds(),
		Results:         results,
	}

	j.mu.Lock()
	j.report = report
	j.mu.Unlock()

	close(j.progress)
	close(j.done)
}
