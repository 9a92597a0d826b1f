// Package metrics records counters and timings for oracle runs.
package metrics

import "time"

// OracleMetrics defines the interface for recording oracle metrics.
type OracleMetrics interface {
	// RecordClassified counts one classified log record of the
	// given kind.
	RecordClassified(kind string)
	// RecordVerdict counts one verdict for an assert type.
	RecordVerdict(assertType string, passed bool)
	// RecordMissingDeclaration counts an undeclared assertion id.
	RecordMissingDeclaration()
	// ObserveRun records a finished run with its status and
	// wall-clock duration.
	ObserveRun(status string, duration time.Duration)
}

// NoopMetrics is a no-op implementation of OracleMetrics
// useful for testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordClassified(_ string)            {}
func (NoopMetrics) RecordVerdict(_ string, _ bool)       {}
func (NoopMetrics) RecordMissingDeclaration()            {}
func (NoopMetrics) ObserveRun(_ string, _ time.Duration) {}
