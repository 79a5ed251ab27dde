/*
Package workers sizes the decode worker pools so they respect container
CPU limits.

# Overview

Developing a raw frame pins a CPU core for hundreds of milliseconds, and a
directory of several hundred frames arrives all at once, so the preview
pipeline has to bound its concurrency. In containers the honest core count
is GOMAXPROCS, not runtime.NumCPU: Go 1.19+ sets GOMAXPROCS from the cgroup
CPU limit while NumCPU still reports the host.

	// Wrong: returns the host CPU count, ignores the container limit
	workers := runtime.NumCPU()

	// Correct: respects the container limit in Go 1.19+
	workers := runtime.GOMAXPROCS(0)

Spawning one decode per host core on a quota-limited pod just buys context
switching, CPU throttling by the runtime, and memory pressure from decoded
pixel buffers that nobody can display yet.

# Usage

Task-specific helpers cover the common cases:

	// Preview decodes are CPU-bound; keep the classic cap of 4
	n := workers.ForCPU(4)

	// Mixed read-then-decode work
	n := workers.ForMixed(8)

For fine-grained control use Count directly:

	n := workers.Count(1.5, 12) // 1.5 per CPU, at most 12
	n := workers.Count(2.0, 0)  // no cap

# Environment Variable Override

DECODE_WORKERS overrides the calculation entirely (still capped by the
limit argument). Invalid or non-positive values are ignored.

	DECODE_WORKERS=2 ./raf-importer

# Choosing a Multiplier

CPU-bound work (demosaic, resize, JPEG encode) wants 1.0: extra workers
only add context switching. I/O-bound work (reading frames off a card or
NAS) tolerates 2.0 because workers park in syscalls. The preview pipeline
reads then decodes, so the configured default is ForCPU with a small cap
and the read portion hides inside the pool.

All functions are safe for concurrent use.
*/
package workers
