package handlers

import (
	"net/http"
	"runtime"
	"time"

	"raf-importer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Ready        bool   `json:"ready"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Directory    string `json:"directory,omitempty"`
	Loading      bool   `json:"loading"`
	Exporting    bool   `json:"exporting"`
	StartupError string `json:"startupError,omitempty"`

	// Progress info
	TotalFiles     int `json:"totalFiles"`
	RatedFiles     int `json:"ratedFiles"`
	CachedPreviews int `json:"cachedPreviews"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.session.Status()
	ready := status.Directory != ""

	loading := false
	if b := status.Batch; b != nil {
		loading = !b.Cancelled && b.Loaded+b.Cached+b.Failed < b.Total
	}
	exporting := status.Export != nil && status.Export.Running

	response := HealthResponse{
		Ready:          ready,
		Version:        startup.Version,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		Directory:      status.Directory,
		Loading:        loading,
		Exporting:      exporting,
		TotalFiles:     status.Files,
		RatedFiles:     status.Rated,
		CachedPreviews: status.Cached,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	if ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if msg := h.startupError(); msg != "" {
		response.StartupError = msg
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if no library is open yet
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when a library is open
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.session.Dir() != "" {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
