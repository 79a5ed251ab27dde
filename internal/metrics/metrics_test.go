package metrics

import (
	"testing"
)

func TestHTTPMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric any
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestPreviewMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric any
	}{
		{"PreviewDecodesTotal", PreviewDecodesTotal},
		{"PreviewDecodeDuration", PreviewDecodeDuration},
		{"PreviewCacheHits", PreviewCacheHits},
		{"PreviewCacheMisses", PreviewCacheMisses},
		{"PreviewCacheEntries", PreviewCacheEntries},
		{"PreviewCacheBytes", PreviewCacheBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestBatchMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric any
	}{
		{"BatchesTotal", BatchesTotal},
		{"BatchRunning", BatchRunning},
		{"BatchLastDuration", BatchLastDuration},
		{"BatchLastTimestamp", BatchLastTimestamp},
		{"BatchItemsTotal", BatchItemsTotal},
		{"BatchThrottleSeconds", BatchThrottleSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestExportMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric any
	}{
		{"ExportJobsTotal", ExportJobsTotal},
		{"ExportFilesTotal", ExportFilesTotal},
		{"ExportFileDuration", ExportFileDuration},
		{"ExportJobRunning", ExportJobRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestMetricOperations(t *testing.T) {
	// Exercise each metric kind once with zero deltas; panics here mean a
	// metric was declared with the wrong type or label cardinality.
	t.Run("counters", func(_ *testing.T) {
		HTTPRequestsTotal.WithLabelValues("GET", "/api/library", "200").Add(0)
		PreviewDecodesTotal.WithLabelValues("success").Add(0)
		BatchesTotal.WithLabelValues("completed").Add(0)
		BatchItemsTotal.WithLabelValues("loaded").Add(0)
		ExportJobsTotal.WithLabelValues("completed").Add(0)
		ExportFilesTotal.WithLabelValues("succeeded").Add(0)
		RatingOpsTotal.WithLabelValues("set", "success").Add(0)
		WatcherEventsTotal.WithLabelValues("create").Add(0)
		WatcherErrors.Add(0)
		FilesystemOperationErrors.WithLabelValues("read").Add(0)
		FilesystemRetryAttempts.WithLabelValues("read").Add(0)
		FilesystemStaleErrors.WithLabelValues("read").Add(0)
		BatchThrottleSeconds.Add(0)
	})

	t.Run("histograms", func(_ *testing.T) {
		HTTPRequestDuration.WithLabelValues("GET", "/api/library").Observe(0.01)
		PreviewDecodeDuration.Observe(0.05)
		ExportFileDuration.Observe(1.0)
		FilesystemOperationDuration.WithLabelValues("read").Observe(0.001)
	})

	t.Run("gauges", func(_ *testing.T) {
		HTTPRequestsInFlight.Set(0)
		PreviewCacheEntries.Set(0)
		PreviewCacheBytes.Set(0)
		BatchRunning.Set(0)
		ExportJobRunning.Set(0)
		LibraryFiles.Set(0)
		LibraryRatedFiles.Set(0)
		LibrarySimilarGroups.Set(0)
		MemoryUsedBytes.Set(0)
		MemoryLimitBytes.Set(0)
	})
}

func TestInitializeMetrics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("InitializeMetrics panicked: %v", r)
		}
	}()
	InitializeMetrics()
}

func TestSetAppInfo(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("SetAppInfo panicked: %v", r)
		}
	}()
	SetAppInfo("1.0.0-test", "abcdef0", "go1.25")
}
