package handlers

import (
	"net/http"
	"strconv"
)

// GetSimilarGroups returns clusters of near-duplicate frames among the
// loaded thumbnails. The threshold parameter overrides the configured
// hash distance for this request.
func (h *Handlers) GetSimilarGroups(w http.ResponseWriter, r *http.Request) {
	threshold := -1
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		parsed, err := strconv.Atoi(thresholdStr)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid threshold", http.StatusBadRequest)
			return
		}
		threshold = parsed
	}

	groups := h.session.Groups(threshold)
	if groups == nil {
		groups = [][]string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"count":  len(groups),
		"groups": groups,
	})
}
