package similar

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/corona10/goimagehash"
)

// Index maps raw file paths to difference hashes of their previews.
// Safe for concurrent use; hashing runs outside the lock.
type Index struct {
	mu     sync.RWMutex
	hashes map[string]uint64
}

func NewIndex() *Index {
	return &Index{hashes: make(map[string]uint64)}
}

// Add hashes img and records it under path.
func (ix *Index) Add(path string, img image.Image) error {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return fmt.Errorf("difference hash for %s: %w", path, err)
	}

	ix.mu.Lock()
	ix.hashes[path] = hash.GetHash()
	ix.mu.Unlock()
	return nil
}

// Remove forgets path.
func (ix *Index) Remove(path string) {
	ix.mu.Lock()
	delete(ix.hashes, path)
	ix.mu.Unlock()
}

// Clear drops every hash. Called when the active directory changes.
func (ix *Index) Clear() {
	ix.mu.Lock()
	ix.hashes = make(map[string]uint64)
	ix.mu.Unlock()
}

// Len returns the number of indexed paths.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.hashes)
}

// Groups clusters paths whose hashes sit within threshold bits of a
// seed. Seeds are taken in sorted path order and members join the
// first seed in range, so output is deterministic. Singletons are
// omitted. Threshold 0 groups only exact hash matches.
func (ix *Index) Groups(threshold int) [][]string {
	ix.mu.RLock()
	paths := make([]string, 0, len(ix.hashes))
	hashes := make(map[string]uint64, len(ix.hashes))
	for p, h := range ix.hashes {
		paths = append(paths, p)
		hashes[p] = h
	}
	ix.mu.RUnlock()

	sort.Strings(paths)

	used := make(map[string]bool, len(paths))
	var groups [][]string
	for _, seed := range paths {
		if used[seed] {
			continue
		}
		group := []string{seed}
		for _, other := range paths {
			if other == seed || used[other] {
				continue
			}
			if hammingDistance(hashes[seed], hashes[other]) <= threshold {
				group = append(group, other)
			}
		}
		if len(group) > 1 {
			for _, p := range group {
				used[p] = true
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// hammingDistance counts differing bits between two 64-bit hashes.
func hammingDistance(a, b uint64) int {
	xor := a ^ b
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
