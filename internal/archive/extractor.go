package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/observability"
)

// Extractor tries each strategy in priority order and returns on the first
// full success. Every attempt writes into its own sub-path of the workspace,
// so a failed attempt's partial output is never visible to the next strategy.
type Extractor struct {
	strategies []Strategy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewExtractor builds the default chain: the rardecode library first, then
// the unrar and 7z external tools.
func NewExtractor(logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return NewExtractorWithStrategies(logger, metrics,
		RarStrategy{},
		NewUnrarStrategy(),
		NewSevenZipStrategy(),
	)
}

// NewExtractorWithStrategies builds a chain with an explicit strategy list.
func NewExtractorWithStrategies(logger *slog.Logger, metrics *observability.Metrics, strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
		logger:     logger,
		metrics:    metrics,
	}
}

// Extract decompresses the archive into a fresh sub-path of workspace and
// returns that sub-path. When every strategy has been exhausted it returns a
// *domain.ExtractionError carrying the per-strategy causes.
func (e *Extractor) Extract(ctx context.Context, a Archive, workspace string) (string, error) {
	extErr := &domain.ExtractionError{
		Archive: a.Stem,
		Causes:  make(map[string]error),
	}

	for i, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.Available() {
			e.logger.Debug("extraction strategy unavailable", "archive", a.Stem, "strategy", s.Name())
			e.metrics.ExtractionAttempts.WithLabelValues(s.Name(), "unavailable").Inc()
			extErr.Skipped = append(extErr.Skipped, s.Name())
			continue
		}

		dest := filepath.Join(workspace, fmt.Sprintf("attempt-%d", i+1))
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", fmt.Errorf("create extraction dir %s: %w", dest, err)
		}

		start := time.Now()
		err := s.Extract(ctx, a.Path, dest)
		if err == nil {
			err = requireNonEmpty(dest, s.Name())
		}
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				"archive", a.Stem, "strategy", s.Name(), "error", err)
			e.metrics.ExtractionAttempts.WithLabelValues(s.Name(), "error").Inc()
			extErr.Causes[s.Name()] = err
			// Discard this attempt's partial output so later strategies and
			// the loader never see it. Best effort; the janitor removes the
			// whole workspace at end of processing either way.
			os.RemoveAll(dest)
			continue
		}

		e.metrics.ExtractionAttempts.WithLabelValues(s.Name(), "success").Inc()
		e.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
		e.logger.Info("archive extracted",
			"archive", a.Stem, "strategy", s.Name(), "duration", time.Since(start))
		return dest, nil
	}

	return "", extErr
}

// requireNonEmpty guards against extractors that exit zero without writing
// anything (seen with codec-less 7z builds).
func requireNonEmpty(dest, strategy string) error {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return fmt.Errorf("inspect %s output: %w", strategy, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s completed without extracting any files", strategy)
	}
	return nil
}
