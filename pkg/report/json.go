package report

import (
	"io"

	"digital.vasic.oracle/pkg/assertion"
)

// JSONReporter generates JSON reports from verdicts.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

// jsonVerdictReport adds the fields the verdict line omits.
type jsonVerdictReport struct {
	*assertion.Result
	AssertType string `json:"assert_type"`
	MustHit    bool   `json:"must_hit"`
	Reason     string `json:"reason,omitempty"`
}

// GenerateReport creates a JSON report for a single verdict.
func (r *JSONReporter) GenerateReport(
	result *assertion.Result,
) ([]byte, error) {
	return r.marshal(jsonVerdictReport{
		Result:     result,
		AssertType: string(result.AssertType),
		MustHit:    result.MustHit,
		Reason:     result.Reason,
	})
}

// GenerateSummary creates a JSON report for a whole run.
func (r *JSONReporter) GenerateSummary(
	summary *Summary,
) ([]byte, error) {
	return r.marshal(summary)
}

// WriteReport writes a JSON report to the specified writer.
func (r *JSONReporter) WriteReport(
	w io.Writer,
	result *assertion.Result,
) error {
	data, err := r.GenerateReport(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (r *JSONReporter) marshal(v any) ([]byte, error) {
	if r.pretty {
		return jsonMarshalIndent(v, "", "  ")
	}
	return jsonMarshal(v)
}
