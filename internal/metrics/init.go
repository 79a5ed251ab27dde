package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Preview pipeline ---
	for _, status := range []string{"success", "error"} {
		PreviewDecodesTotal.WithLabelValues(status)
	}
	for _, result := range []string{"loaded", "cached", "failed"} {
		BatchItemsTotal.WithLabelValues(result)
	}
	for _, outcome := range []string{"completed", "cancelled"} {
		BatchesTotal.WithLabelValues(outcome)
		ExportJobsTotal.WithLabelValues(outcome)
	}

	// --- Export pipeline ---
	for _, status := range []string{"succeeded", "failed"} {
		ExportFilesTotal.WithLabelValues(status)
	}

	// --- Rating store ---
	for _, op := range []string{"set", "reset"} {
		RatingOpsTotal.WithLabelValues(op, "success")
		RatingOpsTotal.WithLabelValues(op, "error")
	}

	// --- Watcher ---
	for _, event := range []string{"create", "remove", "rename", "chmod", "write"} {
		WatcherEventsTotal.WithLabelValues(event)
	}

	// --- Filesystem operations ---
	for _, op := range []string{"stat", "open", "read", "write"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
