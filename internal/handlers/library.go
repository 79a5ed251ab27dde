package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"raf-importer/internal/filesystem"
	"raf-importer/internal/library"
	"raf-importer/internal/logging"
)

type OpenRequest struct {
	Path string `json:"path"`
}

// FileEntry is one library file in a listing response.
type FileEntry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	Rating  int       `json:"rating"`
	Cached  bool      `json:"cached"`
}

// OpenLibrary opens a directory of raw files and starts loading
// thumbnails. An empty body opens the configured library directory.
func (h *Handlers) OpenLibrary(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dir := req.Path
	if dir == "" {
		dir = h.config.LibraryDir
	}

	files, err := h.session.Open(dir)
	if err != nil {
		logging.Warn("open library %s: %v", dir, err)
		status := http.StatusBadRequest
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		writeJSONError(w, "Failed to open directory: "+err.Error(), status)
		return
	}

	// A successful open clears any startup failure
	h.SetStartupError(nil)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"directory": h.session.Dir(),
		"files":     files,
	})
}

// ListFiles returns the open directory's listing with ratings and
// cache state per file.
func (h *Handlers) ListFiles(w http.ResponseWriter, _ *http.Request) {
	dir := h.session.Dir()
	if dir == "" {
		writeJSONError(w, "No directory open", http.StatusConflict)
		return
	}

	files := h.session.Files()
	entries := make([]FileEntry, 0, len(files))
	for _, path := range files {
		_, cached := h.session.Thumbnail(path)
		entry := FileEntry{
			Path:   path,
			Name:   filepath.Base(path),
			Rating: h.session.RatingOf(path),
			Cached: cached,
		}
		// A file can vanish between scan and listing; keep the row
		// and let the next reload prune it.
		if info, err := filesystem.Stat(path); err == nil {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime()
		}
		entries = append(entries, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"directory": dir,
		"total":     len(entries),
		"files":     entries,
	})
}

// GetStatus returns a snapshot of the session including batch and
// export progress.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.session.Status())
}

// ReloadLibrary rescans the open directory, pruning state for removed
// files and loading thumbnails for new ones.
func (h *Handlers) ReloadLibrary(w http.ResponseWriter, _ *http.Request) {
	files, err := h.session.Reload()
	if err != nil {
		if errors.Is(err, library.ErrNoDirectory) {
			writeJSONError(w, "No directory open", http.StatusConflict)
			return
		}
		logging.Warn("reload library: %v", err)
		writeJSONError(w, "Failed to reload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"files":  files,
	})
}

// CancelLoad cancels the running thumbnail batch, if any.
func (h *Handlers) CancelLoad(w http.ResponseWriter, _ *http.Request) {
	cancelled := h.session.CancelLoad()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"cancelled": cancelled})
}
