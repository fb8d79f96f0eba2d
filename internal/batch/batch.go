// Package batch drives the per-archive state machine over every discovered
// archive: completion check, extraction, loading, reduction, rendering, and
// guaranteed cleanup, isolating failures so one bad archive never aborts
// the run.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/archive"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/artifact"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/config"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/loader"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/observability"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/reduce"
)

// Extractor decompresses one archive into the workspace and returns the
// extracted root.
type Extractor interface {
	Extract(ctx context.Context, a archive.Archive, workspace string) (string, error)
}

// Loader locates, deserializes, and reconciles the tensor pair under root.
type Loader interface {
	Load(root string) (loader.Pair, error)
}

// Renderer persists one error grid as an image at path. On nil return the
// file exists at path.
type Renderer interface {
	Render(grid domain.ErrorGrid, title, path string) error
}

// Cleaner removes an extraction workspace. Its error is advisory only and
// never becomes part of an archive's outcome.
type Cleaner interface {
	Cleanup(ctx context.Context, dir string) error
}

// Failure records one abandoned archive: which stage failed and why.
type Failure struct {
	Archive string
	Stage   string
	Err     error
}

// Summary is the per-run report accumulated by the orchestrator.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Failures  []Failure
}

// Ok reports whether the run completed without archive failures.
func (s Summary) Ok() bool { return s.Failed == 0 }

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeCanceled
)

// Orchestrator processes archives sequentially in discovery order. Artifacts
// for archive N are fully written, or the archive fully abandoned, before
// archive N+1 begins, so an interrupted run resumes safely via the
// completion oracle.
type Orchestrator struct {
	cfg       *config.Config
	ds        domain.Dataset
	store     *artifact.Store
	extractor Extractor
	loader    Loader
	renderer  Renderer
	janitor   Cleaner
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Orchestrator with the given stages and observability.
func New(cfg *config.Config, ds domain.Dataset, store *artifact.Store, e Extractor, l Loader, r Renderer, j Cleaner, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		ds:        ds,
		store:     store,
		extractor: e,
		loader:    l,
		renderer:  r,
		janitor:   j,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run discovers and processes every archive. A missing source directory is
// the only error returned; archive-scoped failures land in the Summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	archives, err := archive.Discover(o.cfg.SourceDir)
	if err != nil {
		return Summary{}, err
	}
	o.logger.Info("batch started",
		"archives", len(archives), "source", o.cfg.SourceDir, "result", o.store.Root(), "mode", o.cfg.RenderMode)

	o.metrics.BatchRunning.Set(1)
	defer o.metrics.BatchRunning.Set(0)

	var summary Summary
	for _, a := range archives {
		out, failure := o.processArchive(ctx, a)
		switch out {
		case outcomeProcessed:
			summary.Processed++
			o.metrics.ArchivesProcessed.Inc()
		case outcomeSkipped:
			summary.Skipped++
			o.metrics.ArchivesSkipped.Inc()
		case outcomeFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, *failure)
			o.metrics.ArchivesFailed.Inc()
			o.logger.Error("archive failed",
				"archive", failure.Archive, "stage", failure.Stage, "error", failure.Err)
		case outcomeCanceled:
			o.logger.Info("batch stopping", "reason", ctx.Err())
			return summary, nil
		}
	}

	return summary, nil
}

// processArchive walks one archive through the state machine. The workspace
// janitor runs on every exit path once a workspace exists; cleanup uses a
// cancellation-free context so an interrupt cannot skip deletion.
func (o *Orchestrator) processArchive(ctx context.Context, a archive.Archive) (outcome, *Failure) {
	if err := ctx.Err(); err != nil {
		return outcomeCanceled, nil
	}

	pending := o.pendingHours(a)
	if len(pending) == 0 {
		o.logger.Info("archive already complete, skipping", "archive", a.Stem)
		return outcomeSkipped, nil
	}

	start := time.Now()
	fail := func(stage string, err error) (outcome, *Failure) {
		if ctx.Err() != nil {
			return outcomeCanceled, nil
		}
		return outcomeFailed, &Failure{Archive: a.Stem, Stage: stage, Err: err}
	}

	workspace, err := os.MkdirTemp(o.cfg.WorkDir, a.Stem+"-")
	if err != nil {
		return fail("workspace", err)
	}
	defer o.janitor.Cleanup(context.WithoutCancel(ctx), workspace) //nolint:errcheck // cleanup failure is logged, never an outcome

	extractCtx := ctx
	if o.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, o.cfg.ExtractTimeout)
		defer cancel()
	}
	root, err := o.extractor.Extract(extractCtx, a, workspace)
	if err != nil {
		return fail("extract", err)
	}

	pair, err := o.loader.Load(root)
	if err != nil {
		return fail("load", err)
	}

	if err := o.renderPending(ctx, a, pair, pending); err != nil {
		return fail("render", err)
	}

	o.metrics.ArchiveDuration.Observe(time.Since(start).Seconds())
	o.logger.Info("archive processed",
		"archive", a.Stem, "artifacts", len(pending), "duration", time.Since(start))
	return outcomeProcessed, nil
}

// pendingHours returns the 1-based hours still needing artifacts, or {0} for
// single mode's one pooled artifact. Empty means fully complete.
func (o *Orchestrator) pendingHours(a archive.Archive) []int {
	if o.cfg.RenderMode == config.ModeSingle {
		if o.store.Done(a.Stem) {
			return nil
		}
		return []int{0}
	}
	return o.store.MissingHours(a.Stem, o.ds.Hours)
}

func (o *Orchestrator) renderPending(ctx context.Context, a archive.Archive, pair loader.Pair, pending []int) error {
	ref := o.ds.ReferenceModel().Display
	for _, h := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		var grid domain.ErrorGrid
		var title, path string
		if h == 0 {
			grid = reduce.PooledGrid(o.ds, pair)
			title = fmt.Sprintf("%s: all hours, relative to %s (truth: %s)", a.Stem, ref, o.ds.TruthName)
			path = o.store.SinglePath(a.Stem)
		} else {
			grid = reduce.HourGrid(o.ds, pair, h)
			title = fmt.Sprintf("%s: %dh, relative to %s (truth: %s)", a.Stem, h, ref, o.ds.TruthName)
			path = o.store.HourPath(a.Stem, h)
		}

		if err := o.renderer.Render(grid, title, path); err != nil {
			return err
		}
		o.logger.Debug("artifact written", "archive", a.Stem, "path", path)
	}
	return nil
}
