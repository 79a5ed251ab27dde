package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"raf-importer/internal/library"
	"raf-importer/internal/rating"
)

type RatingRequest struct {
	Path   string `json:"path"`
	Rating int    `json:"rating"`
}

// SetRating scores a file from 0 to 5. Zero resets the score.
func (h *Handlers) SetRating(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.session.Rate(req.Path, req.Rating); err != nil {
		switch {
		case errors.Is(err, library.ErrUnknownFile):
			http.Error(w, "File not found", http.StatusNotFound)
		case errors.Is(err, rating.ErrInvalidRating):
			http.Error(w, "Rating must be between 0 and 5", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to set rating", http.StatusInternalServerError)
		}
		return
	}

	writeJSONStatus(w, "ok")
}

// GetRating returns the rating for a single file, 0 when unscored.
func (h *Handlers) GetRating(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"path":   path,
		"rating": h.session.RatingOf(path),
	})
}

// ListRatings returns every nonzero rating keyed by path.
func (h *Handlers) ListRatings(w http.ResponseWriter, _ *http.Request) {
	ratings := h.session.Ratings()
	if ratings == nil {
		ratings = map[string]int{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ratings)
}

// FilterFiles returns the paths rated at least minRating, sorted. A
// minRating of 0 (or none) returns the full listing.
func (h *Handlers) FilterFiles(w http.ResponseWriter, r *http.Request) {
	min := 0
	if minStr := r.URL.Query().Get("minRating"); minStr != "" {
		parsed, err := strconv.Atoi(minStr)
		if err != nil {
			http.Error(w, "Invalid minRating", http.StatusBadRequest)
			return
		}
		min = parsed
	}

	files := h.session.FilterByMinRating(min)
	if files == nil {
		files = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"minRating": min,
		"count":     len(files),
		"files":     files,
	})
}
