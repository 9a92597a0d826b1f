package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoricalEntry represents a single oracle run in the historical
// log.
type HistoricalEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	Duration       string    `json:"duration"`
	VerdictsPassed int       `json:"verdicts_passed"`
	VerdictsTotal  int       `json:"verdicts_total"`
	Missing        int       `json:"missing_declarations"`
	OutputPath     string    `json:"output_path"`
}

// AppendToHistory adds an entry for summary to the historical log
// stored at historyPath. Each entry is a single JSON line; runs are
// never aggregated.
func AppendToHistory(
	historyPath string,
	summary *Summary,
	outputPath string,
) error {
	entry := HistoricalEntry{
		Timestamp:      summary.GeneratedAt,
		RunID:          summary.RunID,
		Status:         summary.Status(),
		Duration:       summary.Duration.String(),
		VerdictsPassed: summary.Passed,
		VerdictsTotal:  summary.Total,
		Missing:        len(summary.Missing),
		OutputPath:     outputPath,
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return fmt.Errorf(
			"failed to marshal history entry: %w", err,
		)
	}

	if dir := filepath.Dir(historyPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf(
				"failed to create history directory: %w", err,
			)
		}
	}

	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	_, err = fmt.Fprintln(file, string(data))
	return err
}
