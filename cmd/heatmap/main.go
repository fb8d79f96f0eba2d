// Command heatmap batch-converts archived forecast datasets into comparative
// RMSE heatmaps. It discovers *.rar archives in the source directory,
// extracts each through a chain of fallback strategies, computes per-feature
// per-hour RMSE of every model against the reference, renders one heatmap per
// pending artifact, and removes the extraction workspace whatever the
// outcome. Already-rendered artifacts are skipped, so an interrupted run can
// simply be restarted.
//
// Usage:
//
//	heatmap -data /mnt/archives [-result result]
//
// Configuration also comes from the environment (SOURCE_DIR, RESULT_DIR,
// RENDER_MODE, ...); flags win over environment.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/archive"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/artifact"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/batch"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/config"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/janitor"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/loader"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/observability"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/render"
)

func main() {
	dataDir := flag.String("data", "", "directory containing input archives (overrides SOURCE_DIR)")
	resultDir := flag.String("result", "", "directory for output images (overrides RESULT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.SourceDir = *dataDir
	}
	if *resultDir != "" {
		cfg.ResultDir = *resultDir
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *observability.Server
	if cfg.MetricsAddr != "" {
		srv = observability.NewServer(cfg.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	store, err := artifact.NewStore(cfg.ResultDir)
	if err != nil {
		logger.Error("failed to prepare result directory", "error", err)
		os.Exit(1)
	}

	ds := domain.DefaultDataset()
	orchestrator := batch.New(
		cfg,
		ds,
		store,
		archive.NewExtractor(logger, metrics),
		loader.New(ds, logger),
		render.New(logger),
		janitor.New(logger, metrics, clockwork.NewRealClock(), cfg.CleanupMaxRetries, cfg.CleanupRetryDelay),
		logger,
		metrics,
	)

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}

	for _, f := range summary.Failures {
		logger.Warn("failed archive", "archive", f.Archive, "stage", f.Stage, "error", f.Err)
	}
	logger.Info("batch complete",
		"processed", summary.Processed, "skipped", summary.Skipped, "failed", summary.Failed)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if !summary.Ok() {
		os.Exit(1)
	}
}
