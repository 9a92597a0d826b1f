package oracle

import (
	"go.opentelemetry.io/otel/trace"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/logging"
	"digital.vasic.oracle/pkg/metrics"
	"digital.vasic.oracle/pkg/monitor"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.OracleMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithCollector publishes run events to c.
func WithCollector(c *monitor.EventCollector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithEngine replaces the default verdict engine.
func WithEngine(e assertion.Engine) RunnerOption {
	return func(r *Runner) {
		r.engine = e
	}
}

// WithTracer sets the tracer used for phase spans.
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithCanonicalOutput writes verdicts in RFC 8785 form.
func WithCanonicalOutput(canonical bool) RunnerOption {
	return func(r *Runner) {
		r.canonical = canonical
	}
}

// WithPostHook adds a hook run after verdicts were written.
func WithPostHook(h Hook) RunnerOption {
	return func(r *Runner) {
		r.postHooks = append(r.postHooks, h)
	}
}

// WithRunIDGenerator overrides how run ids are created.
func WithRunIDGenerator(fn func() string) RunnerOption {
	return func(r *Runner) {
		r.newRunID = fn
	}
}
