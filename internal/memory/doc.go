// Package memory provides memory limit configuration and heap backpressure
// for the preview pipeline.
//
// # Overview
//
// A directory of raw frames decodes into far more heap than the files
// occupy on disk: a 30MB RAF carries a multi-megapixel embedded preview
// that inflates to tens of megabytes of RGBA. Decoding a few hundred of
// them faster than the client fetches thumbnails will OOM-kill a
// container whose GOMEMLIMIT was never set.
//
// This package does two things:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from the container memory limit
//     (Kubernetes Downward API via MEMORY_LIMIT), reserving headroom for
//     the raw developer subprocess and libvips allocations which live
//     outside the Go heap.
//   - [Monitor] samples heap usage and pauses the batch dispatch loop
//     while usage sits above the critical watermark, resuming below the
//     high watermark. The hysteresis gap prevents pause/resume flapping
//     around a single threshold.
//
// # Usage
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    mon := memory.NewMonitor(memory.DefaultConfig())
//	    mon.Start()
//	    defer mon.Stop()
//	    // dispatch loops call mon.Throttle(ctx) between items
//	}
//
// With no limit configured (no GOMEMLIMIT, no MEMORY_LIMIT), the monitor
// disables itself and Throttle never blocks.
package memory
