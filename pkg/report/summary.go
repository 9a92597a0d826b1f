package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/record"
)

// Run status values.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Summary aggregates the verdicts of one oracle run.
type Summary struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Duration    time.Duration    `json:"duration"`
	Verdicts    []VerdictSummary `json:"verdicts"`
	Total       int              `json:"total"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	PassRate    float64          `json:"pass_rate"`
	FailingIDs  []string         `json:"failing_ids"`

	// Missing lists observed ids that had no declaration. Only
	// non-empty for runs that tolerate missing declarations.
	Missing []string `json:"missing,omitempty"`
}

// VerdictSummary is the reporting view of one verdict.
type VerdictSummary struct {
	ID          string            `json:"id"`
	DisplayType string            `json:"display_type"`
	AssertType  record.AssertType `json:"assert_type"`
	MustHit     bool              `json:"must_hit"`
	Message     string            `json:"message"`
	Location    string            `json:"location"`
	Passed      bool              `json:"passed"`
	Reason      string            `json:"reason,omitempty"`
}

// Status returns StatusPassed when every verdict passed and no
// declaration was missing.
func (s *Summary) Status() string {
	if s.Failed == 0 && len(s.Missing) == 0 {
		return StatusPassed
	}
	return StatusFailed
}

// BuildSummary creates a summary of the verdicts of run runID.
func BuildSummary(
	runID string,
	results []assertion.Result,
) *Summary {
	summary := &Summary{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Verdicts:    make([]VerdictSummary, 0, len(results)),
		FailingIDs:  []string{},
	}

	for _, r := range results {
		summary.Verdicts = append(summary.Verdicts, VerdictSummary{
			ID:          r.ID,
			DisplayType: r.DisplayType,
			AssertType:  r.AssertType,
			MustHit:     r.MustHit,
			Message:     r.Message,
			Location:    formatLocation(r.Location),
			Passed:      r.Passed,
			Reason:      r.Reason,
		})
		summary.Total++
		if r.Passed {
			summary.Passed++
		} else {
			summary.Failed++
			summary.FailingIDs = append(summary.FailingIDs, r.ID)
		}
	}

	if summary.Total > 0 {
		summary.PassRate =
			float64(summary.Passed) / float64(summary.Total)
	}

	return summary
}

func formatLocation(loc record.Location) string {
	if loc.File == "" {
		return loc.Function
	}
	s := fmt.Sprintf("%s:%d", loc.File, loc.BeginLine)
	if loc.Function != "" {
		s += " (" + loc.Function + ")"
	}
	return s
}

// SaveSummary saves the summary to both JSON and Markdown files in
// outputDir and points latest_summary.* at them.
func SaveSummary(summary *Summary, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	ts := summary.GeneratedAt.Format("20060102_150405")

	jsonPath := filepath.Join(
		outputDir,
		fmt.Sprintf("oracle_summary_%s.json", ts),
	)
	jsonData, err := jsonMarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON summary: %w", err)
	}

	mdPath := filepath.Join(
		outputDir,
		fmt.Sprintf("oracle_summary_%s.md", ts),
	)
	if err := os.WriteFile(
		mdPath, []byte(generateSummaryMarkdown(summary)), 0644,
	); err != nil {
		return fmt.Errorf(
			"failed to write Markdown summary: %w", err,
		)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")

	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return nil
}

func generateSummaryMarkdown(summary *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Assertion Oracle - Run Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", summary.RunID)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n",
		summary.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Status:** %s\n\n",
		strings.ToUpper(summary.Status()))

	sb.WriteString("## Verdicts\n\n")
	sb.WriteString("| Assertion | Type | Result | Location |\n")
	sb.WriteString("|-----------|------|--------|----------|\n")
	for _, v := range summary.Verdicts {
		result := "PASS"
		if !v.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			markdownCell(v.Message), markdownCell(v.DisplayType),
			result, markdownCell(v.Location))
	}

	if len(summary.Missing) > 0 {
		sb.WriteString("\n## Missing Declarations\n\n")
		for _, id := range summary.Missing {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total Verdicts | %d |\n", summary.Total)
	fmt.Fprintf(&sb, "| Passed | %d |\n", summary.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&sb, "| Pass Rate | %.0f%% |\n", summary.PassRate*100)
	fmt.Fprintf(&sb, "| Duration | %v |\n", summary.Duration)

	sb.WriteString("\n---\n\n")
	sb.WriteString("*Generated by the assertion oracle*\n")

	return sb.String()
}

// markdownCell keeps pipes and newlines from breaking table rows.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
