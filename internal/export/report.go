package export

// FileResult records the outcome for one export candidate.
type FileResult struct {
	Path   string `json:"path"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Succeeded reports whether this candidate produced an output file.
func (r FileResult) Succeeded() bool {
	return r.Error == ""
}

// Report summarizes a finished export job. Results keeps candidate
// order and contains only files that were actually attempted, so a
// cancelled job reports fewer entries than Total.
type Report struct {
	ID              string       `json:"id"`
	Destination     string       `json:"destination"`
	Total           int          `json:"total"`
	Succeeded       int          `json:"succeeded"`
	Failed          int          `json:"failed"`
	Cancelled       bool         `json:"cancelled"`
	DurationSeconds float64      `json:"durationSeconds"`
	Results         []FileResult `json:"results"`
}
