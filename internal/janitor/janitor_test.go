package janitor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/observability"
)

func newJanitor(clock clockwork.Clock, maxRetries int) *Janitor {
	return New(slog.Default(), observability.NewMetricsForTesting(), clock, maxRetries, 500*time.Millisecond)
}

func TestCleanup_RemovesOnFirstTry(t *testing.T) {
	j := newJanitor(clockwork.NewRealClock(), 3)
	dir := t.TempDir()

	require.NoError(t, j.Cleanup(context.Background(), dir))
	assert.NoDirExists(t, dir)
}

func TestCleanup_MissingDirIsNoop(t *testing.T) {
	j := newJanitor(clockwork.NewRealClock(), 3)
	calls := 0
	j.remove = func(string) error { calls++; return nil }

	require.NoError(t, j.Cleanup(context.Background(), filepath.Join(t.TempDir(), "gone")))
	assert.Zero(t, calls)
}

func TestCleanup_RetriesWithGrowingDelays(t *testing.T) {
	clock := clockwork.NewFakeClock()
	j := newJanitor(clock, 5)

	var attempts []time.Time
	j.remove = func(string) error {
		attempts = append(attempts, clock.Now())
		if len(attempts) <= 2 {
			return errors.New("file locked by another process")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- j.Cleanup(context.Background(), t.TempDir()) }()

	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	require.NoError(t, <-done)
	require.Len(t, attempts, 3)

	first := attempts[1].Sub(attempts[0])
	second := attempts[2].Sub(attempts[1])
	assert.Equal(t, 500*time.Millisecond, first)
	assert.Equal(t, time.Second, second)
	assert.GreaterOrEqual(t, second, first, "retry delays must be non-decreasing")
}

func TestCleanup_ExhaustionReturnsLastErrorWithoutPanic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	j := newJanitor(clock, 3)

	locked := errors.New("still locked")
	calls := 0
	j.remove = func(string) error { calls++; return locked }

	done := make(chan error, 1)
	go func() { done <- j.Cleanup(context.Background(), t.TempDir()) }()

	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	err := <-done
	require.ErrorIs(t, err, locked)
	assert.Equal(t, 3, calls)
}

func TestCleanup_CanceledContextStopsRetrying(t *testing.T) {
	clock := clockwork.NewFakeClock()
	j := newJanitor(clock, 5)

	calls := 0
	j.remove = func(string) error { calls++; return errors.New("locked") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Cleanup(ctx, t.TempDir()) }()

	clock.BlockUntil(1)
	cancel()

	require.Error(t, <-done)
	assert.Equal(t, 1, calls)
}
