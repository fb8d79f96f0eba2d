package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/artifact"
)

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	s, err := artifact.NewStore(filepath.Join(t.TempDir(), "result"))
	require.NoError(t, err)
	return s
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
}

func TestNewStore_CreatesRoot(t *testing.T) {
	s := newStore(t)
	assert.DirExists(t, s.Root())
}

func TestPaths(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, filepath.Join(s.Root(), "w1.png"), s.SinglePath("w1"))
	assert.Equal(t, filepath.Join(s.Root(), "w1", "w1_7h.png"), s.HourPath("w1", 7))
}

func TestDone(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.Done("w1"))

	write(t, s.SinglePath("w1"))
	assert.True(t, s.Done("w1"))
	assert.False(t, s.Done("w2"))
}

func TestDone_DirectoryDoesNotCount(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(s.SinglePath("w1"), 0o755))
	assert.False(t, s.Done("w1"))
}

func TestMissingHours(t *testing.T) {
	s := newStore(t)

	assert.Equal(t, []int{1, 2, 3}, s.MissingHours("w1", 3), "nothing rendered yet")

	write(t, s.HourPath("w1", 2))
	assert.Equal(t, []int{1, 3}, s.MissingHours("w1", 3), "partial run resumes at the gaps")

	write(t, s.HourPath("w1", 1))
	write(t, s.HourPath("w1", 3))
	assert.Empty(t, s.MissingHours("w1", 3))

	assert.Equal(t, []int{1, 2, 3}, s.MissingHours("w2", 3), "other stems unaffected")
}
