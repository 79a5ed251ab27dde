package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"raf-importer/internal/export"
	"raf-importer/internal/library"
	"raf-importer/internal/logging"
)

type ExportRequest struct {
	Destination string `json:"destination"`
	Workers     int    `json:"workers"`
}

// ExportStatusResponse combines live job progress with the final
// report once the job settles.
type ExportStatusResponse struct {
	Job    *export.JobStats `json:"job"`
	Report *export.Report   `json:"report,omitempty"`
}

// StartExport begins exporting every rated file. An empty body exports
// to the configured export directory; an optional workers field raises
// or lowers parallelism for this job.
func (h *Handlers) StartExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dest := req.Destination
	if dest == "" {
		dest = h.config.ExportDir
	}
	if dest == "" {
		http.Error(w, "Export destination required", http.StatusBadRequest)
		return
	}

	job, err := h.session.Export(dest, req.Workers)
	if err != nil {
		switch {
		case errors.Is(err, export.ErrBusy):
			writeJSONError(w, "An export is already running", http.StatusConflict)
		case errors.Is(err, library.ErrNoCandidates):
			writeJSONError(w, "No files rated above zero", http.StatusUnprocessableEntity)
		default:
			logging.Warn("start export to %s: %v", dest, err)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	stats := job.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]interface{}{
		"status":      "started",
		"id":          job.ID(),
		"destination": job.Destination(),
		"total":       stats.Total,
	})
}

// GetExportStatus returns progress of the most recent export job and,
// once finished, its report.
func (h *Handlers) GetExportStatus(w http.ResponseWriter, _ *http.Request) {
	stats := h.session.ExportStatus()
	if stats == nil {
		writeJSONError(w, "No export job", http.StatusNotFound)
		return
	}

	response := ExportStatusResponse{
		Job:    stats,
		Report: h.session.ExportReport(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// CancelExport cancels the running export job, if any. Files already
// being developed finish and land in the report.
func (h *Handlers) CancelExport(w http.ResponseWriter, _ *http.Request) {
	cancelled := h.session.CancelExport()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"cancelled": cancelled})
}
