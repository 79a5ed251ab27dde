package filesystem

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem
	// operation. operation is one of "stat", "open", "read", "write".
	ObserveOperation(operation string, durationSeconds float64, err error)

	// ObserveRetryAttempt records a retry sleep before another attempt.
	ObserveRetryAttempt(operation string)

	// ObserveStaleError records an NFS stale-handle error occurrence.
	ObserveStaleError(operation string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nil-safe recording helpers

func observeOperation(op string, seconds float64, err error) {
	if defaultObserver != nil {
		defaultObserver.ObserveOperation(op, seconds, err)
	}
}

func observeRetryAttempt(op string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetryAttempt(op)
	}
}

func observeStaleError(op string) {
	if defaultObserver != nil {
		defaultObserver.ObserveStaleError(op)
	}
}
