// Package archive discovers input archives and extracts them through a
// prioritized chain of independent strategies.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the expected archive extension.
const Ext = ".rar"

// Archive is one discovered input: its path and the logical name derived
// from the file stem, which keys every output artifact.
type Archive struct {
	Path string
	Stem string
}

// Discover enumerates archives in dir, sorted lexicographically by filename
// for a deterministic processing order. A missing or unreadable directory is
// fatal to the whole run and is returned wrapped.
func Discover(dir string) ([]Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", dir, err)
	}

	var archives []Archive
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		name := e.Name()
		archives = append(archives, Archive{
			Path: filepath.Join(dir, name),
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}

	sort.Slice(archives, func(i, j int) bool { return archives[i].Path < archives[j].Path })
	return archives, nil
}
