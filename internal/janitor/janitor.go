// Package janitor removes extraction workspaces, retrying under filesystem
// lock contention with exponential backoff.
package janitor

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/observability"
)

// Janitor deletes temporary extraction output. Cleanup is a guaranteed
// finalizer: it runs exactly once per archive whether processing succeeded
// or failed, and its own failure is never allowed to replace the archive's
// primary outcome.
type Janitor struct {
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	maxRetries int
	baseDelay  time.Duration

	// remove is swapped in tests to simulate lock contention.
	remove func(string) error
}

// New creates a Janitor. maxRetries is the total number of deletion attempts;
// delays between attempts start at baseDelay and double each retry.
func New(logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, maxRetries int, baseDelay time.Duration) *Janitor {
	return &Janitor{
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		remove:     os.RemoveAll,
	}
}

// Cleanup recursively deletes dir. On failure it retries with exponentially
// increasing delays; when all attempts are exhausted it logs a warning,
// leaves the directory behind, and returns the last error for observability.
// Callers must not fold that error into an archive's processing outcome.
func (j *Janitor) Cleanup(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	delay := j.baseDelay
	var lastErr error
	for attempt := 1; attempt <= j.maxRetries; attempt++ {
		lastErr = j.remove(dir)
		if lastErr == nil {
			j.logger.Debug("workspace removed", "dir", dir, "attempt", attempt)
			return nil
		}
		if attempt == j.maxRetries {
			break
		}

		j.logger.Debug("workspace removal failed, retrying",
			"dir", dir, "attempt", attempt, "delay", delay, "error", lastErr)
		j.metrics.CleanupRetries.Inc()
		if !sleepWithContext(ctx, j.clock, delay) {
			lastErr = ctx.Err()
			break
		}
		delay *= 2
	}

	j.logger.Warn("could not remove workspace, leaving it behind",
		"dir", dir, "attempts", j.maxRetries, "error", lastErr)
	return lastErr
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
