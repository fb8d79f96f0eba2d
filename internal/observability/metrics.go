package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// batch converter.
type Metrics struct {
	ArchivesProcessed prometheus.Counter
	ArchivesSkipped   prometheus.Counter
	ArchivesFailed    prometheus.Counter
	BatchRunning      prometheus.Gauge

	ArchiveDuration    prometheus.Histogram
	ExtractionDuration prometheus.Histogram

	ExtractionAttempts *prometheus.CounterVec // labels: strategy, outcome={success,error,unavailable}
	CleanupRetries     prometheus.Counter
}

// NewMetrics creates and registers all converter metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ArchivesProcessed,
		m.ArchivesSkipped,
		m.ArchivesFailed,
		m.BatchRunning,
		m.ArchiveDuration,
		m.ExtractionDuration,
		m.ExtractionAttempts,
		m.CleanupRetries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArchivesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap_etl",
			Name:      "archives_processed_total",
			Help:      "Archives fully converted to heatmaps this run.",
		}),
		ArchivesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap_etl",
			Name:      "archives_skipped_total",
			Help:      "Archives skipped because every output artifact already existed.",
		}),
		ArchivesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap_etl",
			Name:      "archives_failed_total",
			Help:      "Archives abandoned after an archive-scoped failure.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatmap_etl",
			Name:      "batch_running",
			Help:      "1 while the batch loop is active, 0 otherwise.",
		}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatmap_etl",
			Name:      "archive_processing_duration_seconds",
			Help:      "Wall time of one archive's extract-load-reduce-render cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatmap_etl",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of the winning extraction attempt.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		ExtractionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatmap_etl",
			Name:      "extraction_attempts_total",
			Help:      "Extraction strategy attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		CleanupRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap_etl",
			Name:      "cleanup_retries_total",
			Help:      "Workspace deletion retries after a failed removal attempt.",
		}),
	}
}
