package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements OracleMetrics with client_golang
// collectors registered on a private registry, so several
// instances can coexist in one process.
type PrometheusMetrics struct {
	registry    *prometheus.Registry
	records     *prometheus.CounterVec
	verdicts    *prometheus.CounterVec
	missing     prometheus.Counter
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewPrometheusMetrics creates a PrometheusMetrics instance with
// all collectors registered.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_records_total",
				Help: "Log records classified, by record kind.",
			},
			[]string{"kind"},
		),
		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_verdicts_total",
				Help: "Assertion verdicts produced, by assert type and outcome.",
			},
			[]string{"assert_type", "outcome"},
		),
		missing: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oracle_missing_declarations_total",
				Help: "Assertion ids observed without a declaration.",
			},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_runs_total",
				Help: "Oracle runs, by final status.",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oracle_run_duration_seconds",
				Help:    "Wall-clock duration of oracle runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (m *PrometheusMetrics) RecordClassified(kind string) {
	m.records.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordVerdict(assertType string, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.verdicts.WithLabelValues(assertType, outcome).Inc()
}

func (m *PrometheusMetrics) RecordMissingDeclaration() {
	m.missing.Inc()
}

func (m *PrometheusMetrics) ObserveRun(status string, duration time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// Registry exposes the private registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path in the text
// exposition format, for node_exporter's textfile collector.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
