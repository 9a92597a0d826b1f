package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ImplementInterface(t *testing.T) {
	var _ OracleMetrics = &PrometheusMetrics{}
	var _ OracleMetrics = NoopMetrics{}
}

func TestNoopMetrics_AllMethodsSucceed(t *testing.T) {
	m := NoopMetrics{}
	m.RecordClassified("sdk")
	m.RecordVerdict("always", true)
	m.RecordMissingDeclaration()
	m.ObserveRun("completed", time.Second)
}

func TestPrometheusMetrics_RecordClassified(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordClassified("assertion")
	m.RecordClassified("assertion")
	m.RecordClassified("event")

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.records.WithLabelValues("assertion")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.records.WithLabelValues("event")))
}

func TestPrometheusMetrics_RecordVerdict(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordVerdict("always", true)
	m.RecordVerdict("always", false)
	m.RecordVerdict("always", false)

	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.verdicts.WithLabelValues("always", "passed")))
	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.verdicts.WithLabelValues("always", "failed")))
}

func TestPrometheusMetrics_MissingAndRuns(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordMissingDeclaration()
	m.ObserveRun("failed", 250*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.missing))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.runs.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestPrometheusMetrics_IndependentRegistries(t *testing.T) {
	a := NewPrometheusMetrics()
	b := NewPrometheusMetrics()
	a.RecordMissingDeclaration()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.missing))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.missing))
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordVerdict("sometimes", true)

	path := filepath.Join(t.TempDir(), "oracle.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data),
		`oracle_verdicts_total{assert_type="sometimes",outcome="passed"} 1`)
}

func TestPrometheusMetrics_WriteTextfile_BadDir(t *testing.T) {
	m := NewPrometheusMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordClassified("sdk")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `oracle_records_total{kind="sdk"} 1`)
	assert.NotNil(t, m.Registry())
}
