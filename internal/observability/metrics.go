package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remote_sensing_etl"

// Skip reasons used as label values on FilesSkipped.
const (
	SkipUndecodable = "undecodable"
	SkipNoRows      = "no_rows"
	SkipStat        = "stat"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the loader
// and refresher.
type Metrics struct {
	Reloads      prometheus.Counter
	CacheHits    prometheus.Counter
	FilesLoaded  prometheus.Counter
	FilesSkipped *prometheus.CounterVec // labels: reason={undecodable,no_rows,stat}
	RowsAccepted prometheus.Counter
	RowsDropped  prometheus.Counter

	ReloadDuration prometheus.Histogram
	CorpusRows     prometheus.Gauge

	RefresherRunning prometheus.Gauge
	SinkErrors       *prometheus.CounterVec // labels: sink={kafka,sqlite}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Reloads,
		m.CacheHits,
		m.FilesLoaded,
		m.FilesSkipped,
		m.RowsAccepted,
		m.RowsDropped,
		m.ReloadDuration,
		m.CorpusRows,
		m.RefresherRunning,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Total full rebuilds of the dataset.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Loads served from the cached dataset.",
		}),
		FilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Source files that contributed rows to a rebuild.",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Source files skipped during a rebuild, by reason.",
		}, []string{"reason"}),
		RowsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_accepted_total",
			Help:      "Rows that passed coordinate validation.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows dropped for missing or out-of-region coordinates.",
		}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of a full dataset rebuild.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		CorpusRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_rows",
			Help:      "Observations in the current dataset.",
		}),
		RefresherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresher_running",
			Help:      "1 when the refresher loop is active, 0 when shut down.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed dataset publishes, by sink.",
		}, []string{"sink"}),
	}
}
