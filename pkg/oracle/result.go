package oracle

import (
	"time"

	"digital.vasic.oracle/pkg/assertion"
)

// Run status values reported to metrics and hooks.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusError  = "error"
)

// RunResult describes a finished oracle run.
type RunResult struct {
	RunID  string
	Input  string
	Output string

	// Records counts the classified lines, Ignored the subset that
	// were not assertions, Instances the assertion records.
	Records   int
	Ignored   int
	Instances int

	// Results holds one verdict per declared id in first-seen
	// order.
	Results []assertion.Result

	// Missing lists undeclared ids when they are tolerated.
	Missing []string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Passed counts the passing verdicts.
func (r *RunResult) Passed() int {
	n := 0
	for _, v := range r.Results {
		if v.Passed {
			n++
		}
	}
	return n
}

// Failed counts the failing verdicts.
func (r *RunResult) Failed() int {
	return len(r.Results) - r.Passed()
}

// Status is StatusPassed when every verdict passed and nothing
// was missing, StatusFailed otherwise.
func (r *RunResult) Status() string {
	if r.Failed() == 0 && len(r.Missing) == 0 {
		return StatusPassed
	}
	return StatusFailed
}
