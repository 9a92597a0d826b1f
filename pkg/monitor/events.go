// Package monitor streams oracle run events to live observers. An
// EventCollector records lifecycle events, DashboardData folds them
// into a per-assertion view, and Server publishes both over
// WebSocket, Server-Sent Events and plain JSON.
package monitor

import (
	"time"
)

// EventType represents the type of oracle event.
type EventType string

const (
	EventRunStarted         EventType = "run_started"
	EventRecordIgnored      EventType = "record_ignored"
	EventVerdictPassed      EventType = "verdict_passed"
	EventVerdictFailed      EventType = "verdict_failed"
	EventMissingDeclaration EventType = "missing_declaration"
	EventRunCompleted       EventType = "run_completed"
	EventRunFailed          EventType = "run_failed"
)

// OracleEvent represents a lifecycle event during an oracle run.
type OracleEvent struct {
	Type        EventType     `json:"type"`
	RunID       string        `json:"run_id"`
	AssertionID string        `json:"assertion_id,omitempty"`
	Name        string        `json:"name,omitempty"`
	DisplayType string        `json:"display_type,omitempty"`
	Kind        string        `json:"kind,omitempty"`
	Line        int           `json:"line,omitempty"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}
