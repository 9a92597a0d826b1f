package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"digital.vasic.oracle/pkg/assertion"
)

// HTMLReporter generates standalone HTML reports from verdicts.
type HTMLReporter struct{}

// NewHTMLReporter creates a new HTML reporter.
func NewHTMLReporter() *HTMLReporter {
	return &HTMLReporter{}
}

// GenerateReport creates an HTML report for a single verdict.
func (r *HTMLReporter) GenerateReport(
	result *assertion.Result,
) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes an HTML report for a single verdict to w.
func (r *HTMLReporter) WriteReport(
	w io.Writer,
	result *assertion.Result,
) error {
	r.writeHeader(w, "Assertion: "+result.Message)

	fmt.Fprintf(
		w,
		"<h1>Assertion: %s</h1>\n",
		html.EscapeString(result.Message),
	)
	fmt.Fprintf(
		w,
		"<p><strong>Assertion ID:</strong> <code>%s</code></p>\n",
		html.EscapeString(result.ID),
	)

	r.writeVerdictTable(w, result)
	r.writeDetails(w, "Example Details", result.ExampleDetails)
	r.writeDetails(w, "Counterexample Details", result.CounterDetails)

	r.writeFooter(w)
	return nil
}

func (r *HTMLReporter) writeVerdictTable(
	w io.Writer,
	result *assertion.Result,
) {
	fmt.Fprintln(w, "<h2>Verdict</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "<tr><th>Field</th><th>Value</th></tr>")
	fmt.Fprintf(
		w,
		"<tr><td>Result</td><td class=\"%s\">"+
			"<strong>%s</strong></td></tr>\n",
		statusClass(result.Passed), verdictLabel(result.Passed),
	)
	fmt.Fprintf(
		w,
		"<tr><td>Display Type</td><td>%s</td></tr>\n",
		html.EscapeString(result.DisplayType),
	)
	fmt.Fprintf(
		w,
		"<tr><td>Assert Type</td><td>%s</td></tr>\n",
		html.EscapeString(string(result.AssertType)),
	)
	fmt.Fprintf(
		w,
		"<tr><td>Must Hit</td><td>%t</td></tr>\n",
		result.MustHit,
	)
	fmt.Fprintf(
		w,
		"<tr><td>Location</td><td><code>%s</code></td></tr>\n",
		html.EscapeString(formatLocation(result.Location)),
	)
	if result.Reason != "" {
		fmt.Fprintf(
			w,
			"<tr><td>Reason</td><td>%s</td></tr>\n",
			html.EscapeString(result.Reason),
		)
	}
	fmt.Fprintln(w, "</table>")
}

func (r *HTMLReporter) writeDetails(
	w io.Writer,
	title string,
	details []byte,
) {
	if len(details) == 0 || string(details) == "null" {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, details, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(details)
	}
	fmt.Fprintf(w, "<h2>%s</h2>\n", html.EscapeString(title))
	fmt.Fprintf(
		w, "<pre>%s</pre>\n", html.EscapeString(pretty.String()),
	)
}

// GenerateSummary creates an HTML report for a whole run.
func (r *HTMLReporter) GenerateSummary(
	summary *Summary,
) ([]byte, error) {
	var buf bytes.Buffer

	r.writeHeader(&buf, "Assertion Oracle - Run "+summary.RunID)

	fmt.Fprintln(&buf, "<h1>Assertion Oracle - Run Summary</h1>")
	fmt.Fprintf(
		&buf,
		"<p><strong>Run ID:</strong> <code>%s</code></p>\n",
		html.EscapeString(summary.RunID),
	)
	fmt.Fprintf(
		&buf,
		"<p><strong>Generated:</strong> %s</p>\n",
		summary.GeneratedAt.Format(time.RFC3339),
	)

	r.writeOverview(&buf, summary)
	r.writeMissing(&buf, summary)
	r.writeStats(&buf, summary)
	r.writeFooter(&buf)

	return buf.Bytes(), nil
}

func (r *HTMLReporter) writeOverview(w io.Writer, summary *Summary) {
	fmt.Fprintln(w, "<h2>Verdicts</h2>")
	if len(summary.Verdicts) == 0 {
		fmt.Fprintln(w, "<p>No assertions were declared.</p>")
		return
	}

	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(
		w,
		"<tr><th>Assertion</th><th>Type</th>"+
			"<th>Result</th><th>Location</th><th>Reason</th></tr>",
	)
	for _, v := range summary.Verdicts {
		fmt.Fprintf(
			w,
			"<tr><td>%s</td><td>%s</td>"+
				"<td class=\"%s\">%s</td>"+
				"<td><code>%s</code></td><td>%s</td></tr>\n",
			html.EscapeString(v.Message),
			html.EscapeString(v.DisplayType),
			statusClass(v.Passed), verdictLabel(v.Passed),
			html.EscapeString(v.Location),
			html.EscapeString(v.Reason),
		)
	}
	fmt.Fprintln(w, "</table>")
}

func (r *HTMLReporter) writeMissing(w io.Writer, summary *Summary) {
	if len(summary.Missing) == 0 {
		return
	}
	fmt.Fprintln(w, "<h2>Missing Declarations</h2>")
	fmt.Fprintln(w, "<ul>")
	for _, id := range summary.Missing {
		fmt.Fprintf(
			w, "<li><code>%s</code></li>\n", html.EscapeString(id),
		)
	}
	fmt.Fprintln(w, "</ul>")
}

func (r *HTMLReporter) writeStats(w io.Writer, summary *Summary) {
	fmt.Fprintln(w, "<h2>Statistics</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "<tr><th>Metric</th><th>Value</th></tr>")
	fmt.Fprintf(
		w,
		"<tr><td>Status</td><td class=\"%s\">%s</td></tr>\n",
		statusClass(summary.Status() == StatusPassed),
		strings.ToUpper(summary.Status()),
	)
	fmt.Fprintf(
		w, "<tr><td>Total Verdicts</td><td>%d</td></tr>\n",
		summary.Total,
	)
	fmt.Fprintf(
		w, "<tr><td>Passed</td><td>%d</td></tr>\n", summary.Passed,
	)
	fmt.Fprintf(
		w, "<tr><td>Failed</td><td>%d</td></tr>\n", summary.Failed,
	)
	if summary.Total > 0 {
		fmt.Fprintf(
			w, "<tr><td>Pass Rate</td><td>%.0f%%</td></tr>\n",
			summary.PassRate*100,
		)
	}
	fmt.Fprintf(
		w, "<tr><td>Duration</td><td>%v</td></tr>\n",
		summary.Duration,
	)
	fmt.Fprintln(w, "</table>")
}

func statusClass(passed bool) string {
	if passed {
		return "status-passed"
	}
	return "status-failed"
}

func verdictLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func (r *HTMLReporter) writeHeader(w io.Writer, title string) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont,
    "Segoe UI", Roboto, sans-serif;
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
  color: #333;
  background: #f9f9f9;
}
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2c3e50; margin-top: 30px; }
table {
  border-collapse: collapse;
  width: 100%%;
  margin: 10px 0;
  background: #fff;
}
th, td {
  border: 1px solid #ddd;
  padding: 8px 12px;
  text-align: left;
}
th { background: #3498db; color: #fff; }
tr:nth-child(even) { background: #f2f2f2; }
.status-passed { color: #27ae60; font-weight: bold; }
.status-failed { color: #e74c3c; font-weight: bold; }
code, pre {
  background: #ecf0f1;
  padding: 2px 6px;
  border-radius: 3px;
  font-size: 0.9em;
}
pre { padding: 10px; overflow-x: auto; }
footer {
  margin-top: 40px;
  padding-top: 10px;
  border-top: 1px solid #ddd;
  color: #7f8c8d;
  font-size: 0.9em;
}
</style>
</head>
<body>
`, html.EscapeString(title))
}

func (r *HTMLReporter) writeFooter(w io.Writer) {
	fmt.Fprintln(w, "<footer>")
	fmt.Fprintln(w, "<p>Generated by the assertion oracle</p>")
	fmt.Fprintln(w, "</footer>")
	fmt.Fprintln(w, "</body>")
	fmt.Fprintln(w, "</html>")
}
