package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "argo_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ingest pipeline.
type Metrics struct {
	FilesProcessed       prometheus.Counter
	FilesFailed          prometheus.Counter
	ProfilesUpserted     prometheus.Counter
	MetadataCreated      prometheus.Counter
	UnsupportedVariables prometheus.Counter
	PipelineRunning      prometheus.Gauge

	FileDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Total source files ingested successfully.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Total source files that could not be ingested.",
		}),
		ProfilesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_upserted_total",
			Help:      "Total profile records written to the sink.",
		}),
		MetadataCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_created_total",
			Help:      "Total distinct metadata records registered.",
		}),
		UnsupportedVariables: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsupported_variables_total",
			Help:      "Variables skipped because their storage type has no decoder.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a batch is being ingested, 0 otherwise.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Duration of ingesting one source file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates the pipeline metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.FilesProcessed,
		m.FilesFailed,
		m.ProfilesUpserted,
		m.MetadataCreated,
		m.UnsupportedVariables,
		m.PipelineRunning,
		m.FileDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
