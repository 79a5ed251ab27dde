/*
Package filesystem provides resilient filesystem operations with automatic
retry logic for NFS stale file handle errors.

# Purpose

Photo libraries routinely live on NAS mounts, and a culling session hammers
them with thousands of small reads. This package wraps the standard
operations (os.Stat, os.Open, os.ReadFile, os.WriteFile) with retry logic
for transient NFS failures, particularly ESTALE (stale file handle) errors
that occur when files are accessed during network issues or server-side
changes.

# Usage

	import "raf-importer/internal/filesystem"

	data, err := filesystem.ReadFile("/mnt/photos/DSCF0042.RAF")
	if err != nil {
	    return err
	}

	f, err := filesystem.Open("/mnt/photos/DSCF0042.RAF")
	if err != nil {
	    return err
	}
	defer f.Close()

Retry behavior is configured once at startup:

	filesystem.SetRetryConfig(filesystem.RetryConfig{
	    MaxRetries:     5,
	    InitialBackoff: 100 * time.Millisecond,
	    MaxBackoff:     time.Second,
	})

# Retry Behavior

Exponential backoff with defaults of 3 attempts, 50ms initial backoff,
500ms cap (50ms → 100ms → 200ms). Only ESTALE triggers retries; all other
errors fail immediately. Successful first attempts add no measurable
overhead.

Metric recording is injected via SetObserver to avoid an import cycle with
the metrics package; with no observer set, operations run silently.
*/
package filesystem
