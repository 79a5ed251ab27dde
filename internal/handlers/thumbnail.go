package handlers

import (
	"image/jpeg"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"raf-importer/internal/logging"

	"github.com/disintegration/imaging"
)

// previewJPEGQuality is the re-encode quality for browse thumbnails.
// Export quality is configured separately.
const previewJPEGQuality = 85

// GetThumbnail serves a cached thumbnail as JPEG. The size parameter
// bounds the longer edge; 0 serves the decoded size.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	dir := h.session.Dir()
	if dir == "" {
		http.Error(w, "No directory open", http.StatusServiceUnavailable)
		return
	}

	// Security check
	absPath, err := filepath.Abs(path)
	if err != nil || !isSubPath(dir, absPath) {
		logging.Warn("thumbnail: path outside library: %s", path)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	thumb, ok := h.session.Thumbnail(absPath)
	if !ok {
		if !slices.Contains(h.session.Files(), absPath) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		// Known file whose decode has not landed yet; the client retries
		http.Error(w, "Thumbnail not loaded", http.StatusNotFound)
		return
	}

	img := thumb.Orientation.Apply(thumb.Image)

	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 0 {
			http.Error(w, "Invalid size", http.StatusBadRequest)
			return
		}
		if size > 0 {
			img = imaging.Fit(img, size, size, imaging.Lanczos)
		}
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		logging.Error("thumbnail: encode failed for %s: %v", absPath, err)
	}
}

func isSubPath(parent, child string) bool {
	parent, _ = filepath.Abs(parent)
	child, _ = filepath.Abs(child)
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
