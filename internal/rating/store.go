package rating

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"raf-importer/internal/metrics"
)

// Ratings run 0 through 5; 0 means unrated and is the default for any
// path never scored.
const (
	Min = 0
	Max = 5
)

// ErrInvalidRating is returned by Set for values outside [Min, Max].
var ErrInvalidRating = errors.New("rating out of range")

// Store maps raw file paths to ratings. Safe for concurrent use by the
// HTTP layer and the export pipeline.
type Store struct {
	mu      sync.RWMutex
	ratings map[string]int
}

func NewStore() *Store {
	return &Store{ratings: make(map[string]int)}
}

// Set scores path. A zero rating removes the entry, matching the
// default for unscored paths. Out-of-range values are rejected and
// leave the store unchanged.
func (s *Store) Set(path string, rating int) error {
	op := "set"
	if rating == 0 {
		op = "reset"
	}
	if rating < Min || rating > Max {
		metrics.RatingOpsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidRating, rating, Min, Max)
	}

	s.mu.Lock()
	if rating == 0 {
		delete(s.ratings, path)
	} else {
		s.ratings[path] = rating
	}
	s.mu.Unlock()

	metrics.RatingOpsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// Get returns the rating for path, 0 when never scored.
func (s *Store) Get(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratings[path]
}

// Forget drops the entry for a path that left the library. Unlike a
// zero Set this is not a user action and records no operation.
func (s *Store) Forget(path string) {
	s.mu.Lock()
	delete(s.ratings, path)
	s.mu.Unlock()
}

// Filter returns the scored paths whose rating satisfies pred, sorted
// lexicographically so callers see a deterministic order.
func (s *Store) Filter(pred func(rating int) bool) []string {
	s.mu.RLock()
	var out []string
	for path, r := range s.ratings {
		if pred(r) {
			out = append(out, path)
		}
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Rated returns the export candidates: every path scored above zero.
func (s *Store) Rated() []string {
	return s.Filter(func(r int) bool { return r > 0 })
}

// All returns a copy of the current ratings.
func (s *Store) All() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.ratings))
	for path, r := range s.ratings {
		out[path] = r
	}
	return out
}

// Len returns the number of rated paths.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// Reset drops every rating. Called when the active directory changes.
func (s *Store) Reset() {
	s.mu.Lock()
	s.ratings = make(map[string]int)
	s.mu.Unlock()
}
