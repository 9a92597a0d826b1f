package monitor

import (
	"sort"
	"sync"
	"time"
)

// Run and assertion status values shown on the dashboard.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPassed    = "passed"
	StatusMissing   = "missing"
)

// DashboardData holds the live state of the current run. It is
// safe for concurrent use; read it through Snapshot.
type DashboardData struct {
	mu         sync.RWMutex
	runID      string
	startTime  time.Time
	status     string
	message    string
	ignored    int
	assertions map[string]AssertionState
}

// DashboardSnapshot is a point-in-time copy of DashboardData.
type DashboardSnapshot struct {
	RunID      string                    `json:"run_id"`
	StartTime  time.Time                 `json:"start_time"`
	Status     string                    `json:"status"`
	Message    string                    `json:"message,omitempty"`
	Assertions map[string]AssertionState `json:"assertions"`
	Summary    DashboardSummary          `json:"summary"`
}

// AssertionState is the latest verdict state of one assertion id.
type AssertionState struct {
	ID          string    `json:"id"`
	Message     string    `json:"message,omitempty"`
	DisplayType string    `json:"display_type,omitempty"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Missing  int     `json:"missing"`
	Ignored  int     `json:"ignored"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard data instance.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		runID:      runID,
		startTime:  time.Now(),
		status:     StatusRunning,
		assertions: make(map[string]AssertionState),
	}
}

// UpdateFromEvent updates dashboard state from an oracle event.
// A run_started event for a new run id clears the previous run.
func (d *DashboardData) UpdateFromEvent(event OracleEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch event.Type {
	case EventRunStarted:
		if event.RunID != d.runID {
			d.assertions = make(map[string]AssertionState)
			d.ignored = 0
			d.runID = event.RunID
		}
		d.startTime = event.Timestamp
		d.status = StatusRunning
		d.message = ""
	case EventRecordIgnored:
		d.ignored++
	case EventVerdictPassed, EventVerdictFailed:
		status := StatusPassed
		if event.Type == EventVerdictFailed {
			status = StatusFailed
		}
		d.assertions[event.AssertionID] = AssertionState{
			ID:          event.AssertionID,
			Message:     event.Name,
			DisplayType: event.DisplayType,
			Status:      status,
			Reason:      event.Message,
			UpdatedAt:   event.Timestamp,
		}
	case EventMissingDeclaration:
		d.assertions[event.AssertionID] = AssertionState{
			ID:        event.AssertionID,
			Status:    StatusMissing,
			Reason:    "observed without a declaration",
			UpdatedAt: event.Timestamp,
		}
	case EventRunCompleted:
		d.status = StatusCompleted
	case EventRunFailed:
		d.status = StatusFailed
		d.message = event.Message
	}
}

func (d *DashboardData) summary() DashboardSummary {
	s := DashboardSummary{Ignored: d.ignored}
	for _, a := range d.assertions {
		s.Total++
		switch a.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusMissing:
			s.Missing++
		}
	}
	if completed := s.Passed + s.Failed; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(d.startTime).Round(time.Millisecond).String()
	return s
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := DashboardSnapshot{
		RunID:      d.runID,
		StartTime:  d.startTime,
		Status:     d.status,
		Message:    d.message,
		Assertions: make(map[string]AssertionState, len(d.assertions)),
		Summary:    d.summary(),
	}
	for k, v := range d.assertions {
		snap.Assertions[k] = v
	}
	return snap
}

// FailingIDs returns the ids currently failed or missing, sorted.
func (s DashboardSnapshot) FailingIDs() []string {
	var ids []string
	for id, a := range s.Assertions {
		if a.Status != StatusPassed {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetStatus sets the overall run status.
func (d *DashboardData) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// BuildDashboardData creates a DashboardData by replaying all
// events held by collector.
func BuildDashboardData(collector *EventCollector) *DashboardData {
	data := NewDashboardData("")
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
