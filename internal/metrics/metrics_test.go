package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trustdebt/domain/grade"
	"trustdebt/domain/report"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()
	rep := &report.Report{
		Result:     &grade.TrustDebtResult{TotalUnits: 48, Grade: "A"},
		Balance:    report.BalanceRecord{Passes: 3},
		Categories: make([]report.CategoryRecord, 5),
	}
	rep.Orthogonality.MaxPairwiseCorrelation = 0.12

	r.ObserveRun(rep, 20*time.Millisecond)
	r.ObserveRun(rep, 10*time.Millisecond)
	r.ObserveFailure("CORRUPT_INPUT")
	r.ObserveRun(nil, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("A", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failuresTotal.WithLabelValues("CORRUPT_INPUT")))
	assert.Equal(t, 0.12, testutil.ToFloat64(r.maxCorrelation))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.categoriesActive))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveFailure("INVALID_INPUT")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trustdebt_run_failures_total{code="INVALID_INPUT"} 1`)
}
