package monitor

import (
	"sync"
	"time"

	"digital.vasic.oracle/pkg/assertion"
)

// EventCollector captures oracle events and timing data.
type EventCollector struct {
	mu       sync.RWMutex
	events   []OracleEvent
	handlers []func(OracleEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Events    int           `json:"events"`
	Runs      int           `json:"runs"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Ignored   int           `json:"ignored"`
	Missing   int           `json:"missing"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]OracleEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
// Handlers run synchronously on the emitting goroutine.
func (c *EventCollector) OnEvent(handler func(OracleEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event OracleEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	c.stats.Events++
	switch event.Type {
	case EventRunStarted:
		c.stats.Runs++
	case EventVerdictPassed:
		c.stats.Passed++
	case EventVerdictFailed:
		c.stats.Failed++
	case EventRecordIgnored:
		c.stats.Ignored++
	case EventMissingDeclaration:
		c.stats.Missing++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(OracleEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitRunStarted emits a run started event.
func (c *EventCollector) EmitRunStarted(runID, input string) {
	c.Emit(OracleEvent{
		Type:  EventRunStarted,
		RunID: runID,
		Name:  input,
	})
}

// EmitRecordIgnored emits an event for a record that was excluded
// from evaluation.
func (c *EventCollector) EmitRecordIgnored(
	runID string, line int, kind, name string,
) {
	c.Emit(OracleEvent{
		Type:  EventRecordIgnored,
		RunID: runID,
		Line:  line,
		Kind:  kind,
		Name:  name,
	})
}

// EmitVerdict emits a passed or failed event for result.
func (c *EventCollector) EmitVerdict(
	runID string, result assertion.Result,
) {
	eventType := EventVerdictPassed
	if !result.Passed {
		eventType = EventVerdictFailed
	}
	c.Emit(OracleEvent{
		Type:        eventType,
		RunID:       runID,
		AssertionID: result.ID,
		Name:        result.Message,
		DisplayType: result.DisplayType,
		Message:     result.Reason,
	})
}

// EmitMissingDeclaration emits an event for an observed id that
// was never declared.
func (c *EventCollector) EmitMissingDeclaration(runID, id string) {
	c.Emit(OracleEvent{
		Type:        EventMissingDeclaration,
		RunID:       runID,
		AssertionID: id,
	})
}

// EmitRunCompleted emits a run completed event.
func (c *EventCollector) EmitRunCompleted(
	runID string, duration time.Duration,
) {
	c.Emit(OracleEvent{
		Type:     EventRunCompleted,
		RunID:    runID,
		Duration: duration,
	})
}

// EmitRunFailed emits a run failed event.
func (c *EventCollector) EmitRunFailed(runID, msg string) {
	c.Emit(OracleEvent{
		Type:    EventRunFailed,
		RunID:   runID,
		Message: msg,
	})
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []OracleEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]OracleEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
