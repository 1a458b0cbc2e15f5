package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wind_analysis"

// Metrics holds the Prometheus counters, histograms, and gauges for the analysis service.
type Metrics struct {
	Analyses         *prometheus.CounterVec   // labels: kind={location,nationwide,windows}, outcome={success,error}
	AnalysisDuration *prometheus.HistogramVec // labels: kind

	// Per-site fan-out metrics.
	SiteFetchErrors   prometheus.Counter
	SiteFetchDuration prometheus.Histogram
	PeriodsDetected   prometheus.Counter

	// Period event sink.
	PeriodsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Open-Meteo upstream metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={archive,forecast}, outcome={success,error,rejected}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	SourceCache      *prometheus.CounterVec   // labels: result={hit,miss}
	BreakerOpen      prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by kind and outcome.",
		}, []string{"kind", "outcome"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall-clock duration of an analysis including upstream fetches.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		SiteFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_fetch_errors_total",
			Help:      "Sites whose readings could not be fetched during a multi-site run.",
		}),
		SiteFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "site_fetch_duration_seconds",
			Help:      "Duration of a single site's fetch and detection task.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PeriodsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_detected_total",
			Help:      "Strong wind periods detected across all analyses.",
		}),
		PeriodsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_published_total",
			Help:      "Strong wind periods written to the period topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish a batch of periods.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Open-Meteo requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_cache_total",
			Help:      "Reading cache lookups by result.",
		}, []string{"result"}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_open",
			Help:      "1 while the Open-Meteo circuit breaker is open, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Analyses,
		m.AnalysisDuration,
		m.SiteFetchErrors,
		m.SiteFetchDuration,
		m.PeriodsDetected,
		m.PeriodsPublished,
		m.PublishErrors,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.SourceCache,
		m.BreakerOpen,
	}
}
