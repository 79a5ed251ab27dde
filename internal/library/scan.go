package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan lists the Fujifilm raw files directly inside dir, sorted by
// name. Hidden files are skipped and subdirectories are not descended
// into; a shoot lands in one flat card directory.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".raf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
