package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCompilation(t *testing.T) {
	RecordCompilation("metrics-ok", 3, 0, 1, nil)
	RecordCompilation("metrics-ok", 1, 2, 0, nil)
	RecordCompilation("metrics-ok", 0, 0, 0, errors.New("no rules"))

	assert.Equal(t, 1.0, testutil.ToFloat64(CompilationsTotal.WithLabelValues("metrics-ok", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CompilationsTotal.WithLabelValues("metrics-ok", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CompilationsTotal.WithLabelValues("metrics-ok", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(RulesTotal.WithLabelValues("metrics-ok", OutcomeCompiled)))
	assert.Equal(t, 2.0, testutil.ToFloat64(RulesTotal.WithLabelValues("metrics-ok", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(RulesTotal.WithLabelValues("metrics-ok", OutcomeSkipped)))
}

func TestRecordExecution(t *testing.T) {
	RecordExecution("metrics-exec", time.Millisecond, nil)
	RecordExecution("metrics-exec", time.Millisecond, nil)
	RecordExecution("metrics-exec", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(ExecutionsTotal.WithLabelValues("metrics-exec", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ExecutionsTotal.WithLabelValues("metrics-exec", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(ExecutionDuration))
}
