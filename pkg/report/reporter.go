// Package report renders oracle verdicts: the JSON Lines verdict
// stream, per-verdict and per-run reports, run summaries and the
// run history log.
package report

import (
	"io"

	"digital.vasic.oracle/pkg/assertion"
)

// Reporter defines the interface for generating verdict reports.
type Reporter interface {
	// GenerateReport creates a report for a single verdict.
	GenerateReport(result *assertion.Result) ([]byte, error)

	// GenerateSummary creates a report for a whole run.
	GenerateSummary(summary *Summary) ([]byte, error)

	// WriteReport writes a single verdict report to w.
	WriteReport(w io.Writer, result *assertion.Result) error
}
