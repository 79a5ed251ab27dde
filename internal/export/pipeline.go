package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"raf-importer/internal/filesystem"
	"raf-importer/internal/logging"
	"raf-importer/internal/metrics"
	"raf-importer/internal/raf"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

// ErrBusy is returned when an export job is already running.
var ErrBusy = errors.New("an export job is already running")

// Pipeline develops, rotates, and encodes candidates into a
// destination directory. At most one job runs at a time.
type Pipeline struct {
	developer raf.Developer
	encoder   Encoder
	workers   int
	quality   int

	mu     sync.Mutex
	active *Job
}

// NewPipeline wires a developer and encoder into a pipeline running
// workers files in parallel. Values below 1 fall back to a single
// worker, which keeps only one raw decoder process alive at a time.
func NewPipeline(developer raf.Developer, encoder Encoder, workers, quality int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Pipeline{
		developer: developer,
		encoder:   encoder,
		workers:   workers,
		quality:   quality,
	}
}

// Export starts a job over candidates, writing one JPEG per candidate
// into destDir. workers overrides the configured parallelism for this
// job; zero or less keeps the pipeline default. Returns ErrBusy while
// a previous job is still running; a finished job is replaced.
func (p *Pipeline) Export(candidates []string, destDir string, workers int) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		select {
		case <-p.active.done:
		default:
			return nil, ErrBusy
		}
	}

	if workers < 1 {
		workers = p.workers
	}

	job := newJob(len(candidates), destDir)
	p.active = job

	go p.run(job, candidates, workers)
	return job, nil
}

// Active returns the most recent job, running or finished, or nil if
// no export has been started.
func (p *Pipeline) Active() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pipeline) run(job *Job, candidates []string, workers int) {
	metrics.ExportJobRunning.Set(1)
	defer metrics.ExportJobRunning.Set(0)

	logging.Info("Export %s: %d candidates -> %s", job.id, len(candidates), job.dest)

	results := make([]FileResult, len(candidates))

	if err := os.MkdirAll(job.dest, 0o755); err != nil {
		for i, path := range candidates {
			results[i] = FileResult{Path: path, Error: fmt.Sprintf("create destination: %v", err)}
			job.settle(results[i])
		}
		p.finish(job, results)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range candidates {
		if job.cancelled.Load() {
			break
		}
		g.Go(func() error {
			results[i] = p.exportOne(path, job.dest)
			job.settle(results[i])
			return nil
		})
	}
	g.Wait()

	p.finish(job, results)
}

// finish assembles the report from the attempted slots and records the
// job outcome. Candidates skipped by cancellation have a zero result
// and are left out.
func (p *Pipeline) finish(job *Job, results []FileResult) {
	attempted := make([]FileResult, 0, len(results))
	for _, r := range results {
		if r.Path != "" {
			attempted = append(attempted, r)
		}
	}
	job.complete(attempted)

	outcome := "completed"
	if job.cancelled.Load() {
		outcome = "cancelled"
	}
	metrics.ExportJobsTotal.WithLabelValues(outcome).Inc()

	report := job.Report()
	logging.Info("Export %s %s: %d succeeded, %d failed of %d in %.1fs",
		job.id, outcome, report.Succeeded, report.Failed, report.Total, report.DurationSeconds)
}

// exportOne runs the full chain for a single candidate. The develop
// step is never interrupted once started, so cancellation only takes
// effect between files.
func (p *Pipeline) exportOne(path, destDir string) FileResult {
	start := time.Now()

	if _, err := filesystem.Stat(path); err != nil {
		return FileResult{Path: path, Error: fmt.Sprintf("source missing: %v", err)}
	}

	developed, meta, err := p.developer.Develop(context.Background(), path)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}

	decodedW, decodedH := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(developed)); err == nil {
		decodedW, decodedH = cfg.Width, cfg.Height
	} else {
		logging.Debug("Export: no dimensions from developed frame for %s: %v", path, err)
	}

	orient := raf.ResolveOrientation(meta.Orientation, meta.SensorWidth, meta.SensorHeight, decodedW, decodedH)

	encoded, err := p.encoder.EncodeJPEG(developed, orient, p.quality)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}

	output := filepath.Join(destDir, jpegName(path))
	// Existing outputs are replaced without prompting.
	if err := filesystem.WriteFile(output, encoded, 0o644); err != nil {
		return FileResult{Path: path, Error: fmt.Sprintf("write %s: %v", output, err)}
	}

	metrics.ExportFileDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Exported %s -> %s (%s, %d bytes)", path, output, orient, len(encoded))
	return FileResult{Path: path, Output: output}
}

// jpegName swaps the source extension for .jpg, keeping the stem.
func jpegName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}
