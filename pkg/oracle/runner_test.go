package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/logging"
	"digital.vasic.oracle/pkg/monitor"
	"digital.vasic.oracle/pkg/record"
)

const (
	sdkLine   = `{"antithesis_sdk":{"language":"go","version":"0.4.0"}}`
	setupLine = `{"antithesis_setup":{"status":"complete","details":{"nodes":3}}}`
)

// assertLine renders one antithesis_assert record.
func assertLine(
	id string, kind record.AssertType, hit, cond, mustHit bool, details string,
) string {
	display := map[record.AssertType]string{
		record.AssertAlways:       "Always",
		record.AssertSometimes:    "Sometimes",
		record.AssertReachability: "Reachable",
	}[kind]
	return fmt.Sprintf(
		`{"antithesis_assert":{"assert_type":%q,"condition":%t,`+
			`"display_type":%q,"hit":%t,"must_hit":%t,"id":%q,`+
			`"message":%q,"location":{"begin_column":1,"begin_line":10,`+
			`"class":"","file":"main.go","function":"main"},"details":%s}}`,
		kind, cond, display, hit, mustHit, id, id+" message", details,
	)
}

func declLine(id string, kind record.AssertType, mustHit bool) string {
	return assertLine(id, kind, false, false, mustHit, "null")
}

func hitLine(id string, kind record.AssertType, cond bool, details string) string {
	return assertLine(id, kind, true, cond, false, details)
}

func logOf(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func fixedRunID(id string) RunnerOption {
	return WithRunIDGenerator(func() string { return id })
}

func newTestRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	r, err := NewRunner(append([]RunnerOption{fixedRunID("run-test")}, opts...)...)
	require.NoError(t, err)
	return r
}

type verdictLine struct {
	DisplayType    string          `json:"display_type"`
	ID             string          `json:"id"`
	Message        string          `json:"message"`
	Location       record.Location `json:"location"`
	ExampleDetails json.RawMessage `json:"example_details"`
	CounterDetails json.RawMessage `json:"counter_details"`
	Passed         bool            `json:"passed"`
}

func parseVerdicts(t *testing.T, out string) map[string]verdictLine {
	t.Helper()
	verdicts := make(map[string]verdictLine)
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		var v verdictLine
		require.NoError(t, json.Unmarshal([]byte(line), &v))
		verdicts[v.ID] = v
	}
	return verdicts
}

func TestRunner_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		id          string
		wantPassed  bool
		wantExample string
		wantCounter string
	}{
		{
			name: "always passes with a true observation",
			lines: []string{
				declLine("A1", record.AssertAlways, true),
				hitLine("A1", record.AssertAlways, true, `{"v":1}`),
			},
			id: "A1", wantPassed: true,
			wantExample: `{"v":1}`, wantCounter: "null",
		},
		{
			name: "always fails on a false observation",
			lines: []string{
				declLine("A1", record.AssertAlways, true),
				hitLine("A1", record.AssertAlways, true, `{"v":1}`),
				hitLine("A1", record.AssertAlways, false, `{"v":2}`),
			},
			id: "A1", wantPassed: false,
			wantExample: `{"v":1}`, wantCounter: `{"v":2}`,
		},
		{
			name: "sometimes never true fails",
			lines: []string{
				declLine("S1", record.AssertSometimes, true),
				hitLine("S1", record.AssertSometimes, false, `{"try":1}`),
				hitLine("S1", record.AssertSometimes, false, `{"try":2}`),
			},
			id: "S1", wantPassed: false,
			wantExample: "null", wantCounter: `{"try":2}`,
		},
		{
			name: "unreached reachability without must_hit passes",
			lines: []string{
				declLine("R1", record.AssertReachability, false),
			},
			id: "R1", wantPassed: true,
			wantExample: "null", wantCounter: "null",
		},
		{
			name: "example is the last true observation",
			lines: []string{
				declLine("S2", record.AssertSometimes, true),
				hitLine("S2", record.AssertSometimes, true, `"first"`),
				hitLine("S2", record.AssertSometimes, true, `"second"`),
			},
			id: "S2", wantPassed: true,
			wantExample: `"second"`, wantCounter: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			res, err := newTestRunner(t).Run(
				context.Background(), strings.NewReader(logOf(tt.lines...)), &out,
			)
			require.NoError(t, err)
			require.Len(t, res.Results, 1)

			v := parseVerdicts(t, out.String())[tt.id]
			assert.Equal(t, tt.id, v.ID)
			assert.Equal(t, tt.id+" message", v.Message)
			assert.Equal(t, "main.go", v.Location.File)
			assert.Equal(t, tt.wantPassed, v.Passed)
			assert.JSONEq(t, tt.wantExample, string(v.ExampleDetails))
			assert.JSONEq(t, tt.wantCounter, string(v.CounterDetails))
		})
	}
}

func TestRunner_IgnoredRecords(t *testing.T) {
	var logBuf bytes.Buffer
	logger := logging.NewJSONLoggerTo(&logBuf, logging.LevelDebug)
	collector := monitor.NewEventCollector()

	input := logOf(
		sdkLine,
		setupLine,
		`{"custom_event":{"x":1}}`,
		`{"send_event":{"event_name":"boot","details":{"ok":true}}}`,
		declLine("A1", record.AssertAlways, false),
	)

	var out bytes.Buffer
	res, err := newTestRunner(t,
		WithLogger(logger), WithCollector(collector),
	).Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Records)
	assert.Equal(t, 4, res.Ignored)
	assert.Equal(t, 1, res.Instances)
	require.Len(t, res.Results, 1)
	assert.Equal(t, StatusPassed, res.Status())

	assert.Equal(t, 4, strings.Count(logBuf.String(), "IGNORE unclassified record"))
	assert.Contains(t, logBuf.String(), `"name":"custom_event"`)
	assert.Contains(t, logBuf.String(), `"name":"boot"`)
	assert.Contains(t, logBuf.String(), `"run_id":"run-test"`)

	stats := collector.Stats()
	assert.Equal(t, 4, stats.Ignored)
	assert.Equal(t, 1, stats.Passed)
	events := collector.Events()
	assert.Equal(t, monitor.EventRunStarted, events[0].Type)
	assert.Equal(t, monitor.EventRunCompleted, events[len(events)-1].Type)
}

func TestRunner_MissingDeclarationIsFatal(t *testing.T) {
	collector := monitor.NewEventCollector()
	input := logOf(
		declLine("A1", record.AssertAlways, false),
		hitLine("ghost", record.AssertAlways, true, "null"),
	)

	var out bytes.Buffer
	res, err := newTestRunner(t, WithCollector(collector)).Run(
		context.Background(), strings.NewReader(input), &out,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, assertion.ErrMissingDeclaration)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, out.String())
	require.NotNil(t, res)
	assert.Empty(t, res.Results)

	stats := collector.Stats()
	assert.Equal(t, 1, stats.Missing)
	events := collector.Events()
	assert.Equal(t, monitor.EventRunFailed, events[len(events)-1].Type)
}

func TestRunner_TolerateMissingDeclarations(t *testing.T) {
	input := logOf(
		declLine("A1", record.AssertAlways, false),
		hitLine("ghost", record.AssertAlways, true, "null"),
	)

	var out bytes.Buffer
	res, err := newTestRunner(t,
		WithEngine(assertion.NewEngine(
			assertion.WithTolerateMissingDeclarations(true),
		)),
	).Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"ghost"}, res.Missing)
	assert.Equal(t, StatusFailed, res.Status())
	verdicts := parseVerdicts(t, out.String())
	assert.Len(t, verdicts, 1)
	assert.Contains(t, verdicts, "A1")
}

func TestRunner_DecodeErrorIsFatal(t *testing.T) {
	input := logOf(
		declLine("A1", record.AssertAlways, false),
		`{"a":1,"b":2`,
	)

	var out bytes.Buffer
	_, err := newTestRunner(t).Run(
		context.Background(), strings.NewReader(input), &out,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, record.ErrDecode)
	var de *record.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Line)
	assert.Empty(t, out.String())
}

func TestRunner_CaseVariantKeysDoNotOverrideFields(t *testing.T) {
	decl := strings.Replace(declLine("A1", record.AssertAlways, true),
		`"hit":false,`, `"hit":false,"Hit":true,"ID":"B1",`, 1)
	input := logOf(decl, hitLine("A1", record.AssertAlways, true, `{"v":1}`))

	var out bytes.Buffer
	res, err := newTestRunner(t).Run(
		context.Background(), strings.NewReader(input), &out,
	)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	verdicts := parseVerdicts(t, out.String())
	require.Contains(t, verdicts, "A1")
	assert.NotContains(t, verdicts, "B1")
	assert.True(t, verdicts["A1"].Passed)
}

func TestRunner_EmptyInput(t *testing.T) {
	var out bytes.Buffer
	res, err := newTestRunner(t).Run(
		context.Background(), strings.NewReader("\n  \n"), &out,
	)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.Records)
	assert.Empty(t, out.String())
}

func TestRunner_Idempotent(t *testing.T) {
	input := logOf(
		sdkLine,
		declLine("A1", record.AssertAlways, true),
		declLine("S1", record.AssertSometimes, true),
		declLine("R1", record.AssertReachability, true),
		hitLine("S1", record.AssertSometimes, false, `{"n":[1,2,{"deep":null}]}`),
		hitLine("A1", record.AssertAlways, true, `{"big":1729000000123456789}`),
		hitLine("S1", record.AssertSometimes, true, `"yes"`),
	)

	run := func() []byte {
		var out bytes.Buffer
		_, err := newTestRunner(t).Run(
			context.Background(), strings.NewReader(input), &out,
		)
		require.NoError(t, err)
		return out.Bytes()
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Contains(t, string(first), `{"big":1729000000123456789}`)

	lines := strings.Split(strings.TrimSuffix(string(first), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"id":"A1"`)
	assert.Contains(t, lines[1], `"id":"S1"`)
	assert.Contains(t, lines[2], `"id":"R1"`)
}

func TestRunner_CanonicalOutput(t *testing.T) {
	input := logOf(declLine("R1", record.AssertReachability, false))

	var out bytes.Buffer
	_, err := newTestRunner(t, WithCanonicalOutput(true)).Run(
		context.Background(), strings.NewReader(input), &out,
	)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), `{"counter_details":null,`))
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := newTestRunner(t).Run(
		ctx, strings.NewReader(logOf(sdkLine)), &out,
	)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

type recordingMetrics struct {
	mu         sync.Mutex
	classified map[string]int
	verdicts   map[string]int
	missing    int
	runs       []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		classified: make(map[string]int),
		verdicts:   make(map[string]int),
	}
}

func (m *recordingMetrics) RecordClassified(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classified[kind]++
}

func (m *recordingMetrics) RecordVerdict(assertType string, passed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[fmt.Sprintf("%s/%t", assertType, passed)]++
}

func (m *recordingMetrics) RecordMissingDeclaration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing++
}

func (m *recordingMetrics) ObserveRun(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func TestRunner_Metrics(t *testing.T) {
	m := newRecordingMetrics()
	input := logOf(
		sdkLine,
		`{"custom_event":{"x":1}}`,
		declLine("A1", record.AssertAlways, false),
		hitLine("A1", record.AssertAlways, false, "null"),
		declLine("S1", record.AssertSometimes, false),
		hitLine("S1", record.AssertSometimes, true, "null"),
	)

	r := newTestRunner(t, WithMetrics(m))
	_, err := r.Run(context.Background(), strings.NewReader(input), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 1, m.classified["sdk"])
	assert.Equal(t, 1, m.classified["event"])
	assert.Equal(t, 4, m.classified["assertion"])
	assert.Equal(t, 1, m.verdicts["always/false"])
	assert.Equal(t, 1, m.verdicts["sometimes/true"])
	assert.Equal(t, []string{StatusFailed}, m.runs)

	_, err = r.Run(context.Background(),
		strings.NewReader(logOf(hitLine("x", record.AssertAlways, true, "null"))),
		&bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 1, m.missing)
	assert.Equal(t, []string{StatusFailed, StatusError}, m.runs)
}

func TestRunner_PostHook(t *testing.T) {
	var seen *RunResult
	r := newTestRunner(t,
		WithTracer(noop.NewTracerProvider().Tracer("test")),
		WithPostHook(func(_ context.Context, res *RunResult) error {
			seen = res
			return nil
		}),
	)

	input := logOf(declLine("R1", record.AssertReachability, false))
	res, err := r.Run(context.Background(), strings.NewReader(input), &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Same(t, res, seen)
	assert.Equal(t, "run-test", seen.RunID)
	assert.False(t, seen.EndTime.IsZero())
}

func TestRunner_PostHookError(t *testing.T) {
	r := newTestRunner(t,
		WithPostHook(func(context.Context, *RunResult) error {
			return assert.AnError
		}),
	)

	var out bytes.Buffer
	input := logOf(declLine("R1", record.AssertReachability, false))
	_, err := r.Run(context.Background(), strings.NewReader(input), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "post-run hook")
	assert.NotEmpty(t, out.String())
}

func TestRunner_RunFiles(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "sdk.jsonl")
	outPath := filepath.Join(dir, "out", "verdicts.jsonl")
	require.NoError(t, os.WriteFile(inPath, []byte(logOf(
		declLine("A1", record.AssertAlways, true),
		hitLine("A1", record.AssertAlways, true, `{"v":1}`),
	)), 0644))

	res, err := newTestRunner(t).RunFiles(context.Background(), inPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, inPath, res.Input)
	assert.Equal(t, outPath, res.Output)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	v := parseVerdicts(t, string(data))["A1"]
	assert.True(t, v.Passed)

	entries, err := os.ReadDir(filepath.Dir(outPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunner_RunFiles_NoOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "sdk.jsonl")
	outPath := filepath.Join(dir, "verdicts.jsonl")
	require.NoError(t, os.WriteFile(inPath, []byte(logOf(
		hitLine("ghost", record.AssertSometimes, true, "null"),
	)), 0644))

	_, err := newTestRunner(t).RunFiles(context.Background(), inPath, outPath)
	require.Error(t, err)
	assert.NoFileExists(t, outPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunner_RunFiles_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestRunner(t).RunFiles(context.Background(),
		filepath.Join(dir, "absent.jsonl"), filepath.Join(dir, "out.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMissingIDs(t *testing.T) {
	assert.Nil(t, MissingIDs(nil))
	assert.Empty(t, MissingIDs(assert.AnError))

	joined := errors.Join(
		&assertion.MissingDeclarationError{ID: "a"},
		fmt.Errorf("wrapped: %w", &assertion.MissingDeclarationError{ID: "b"}),
	)
	assert.Equal(t, []string{"a", "b"}, MissingIDs(joined))
}
