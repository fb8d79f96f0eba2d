// Package artifact owns the result-directory layout and the completion
// oracle. The existence of an output image is the sole durable record of
// prior successful processing; there is no manifest or database.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store maps archive stems and forecast hours to artifact paths under the
// result directory and answers completion queries against them.
type Store struct {
	root string
}

// NewStore creates the result directory if needed and returns a Store
// rooted there.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create result directory %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the result directory.
func (s *Store) Root() string { return s.root }

// SinglePath returns the single-mode artifact path: <root>/<stem>.png.
func (s *Store) SinglePath(stem string) string {
	return filepath.Join(s.root, stem+".png")
}

// HourPath returns the hourly-mode artifact path for a 1-based forecast
// hour: <root>/<stem>/<stem>_<hour>h.png.
func (s *Store) HourPath(stem string, hour int) string {
	return filepath.Join(s.root, stem, fmt.Sprintf("%s_%dh.png", stem, hour))
}

// Done reports whether the single-mode artifact already exists.
func (s *Store) Done(stem string) bool {
	return exists(s.SinglePath(stem))
}

// MissingHours returns the 1-based forecast hours whose hourly artifacts do
// not exist yet, in ascending order. An empty result means the archive is
// fully complete; a partial result means only those hours are recomputed.
func (s *Store) MissingHours(stem string, hours int) []int {
	var missing []int
	for h := 1; h <= hours; h++ {
		if !exists(s.HourPath(stem, h)) {
			missing = append(missing, h)
		}
	}
	return missing
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
