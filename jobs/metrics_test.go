package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentCountsRuns(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := metrics.Instrument("expense_paid", func(ctx context.Context, t *asynq.Task) error {
		return nil
	})
	task := asynq.NewTask(TaskTypeExpensePaid, nil)

	require.NoError(t, handler(context.Background(), task))
	require.NoError(t, handler(context.Background(), task))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.runs.WithLabelValues("expense_paid", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.failures.WithLabelValues("expense_paid")))
}

func TestInstrumentCountsFailures(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	boom := errors.New("boom")
	handler := metrics.Instrument("expense_paid", func(ctx context.Context, t *asynq.Task) error {
		return boom
	})

	err := handler(context.Background(), asynq.NewTask(TaskTypeExpensePaid, nil))
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("expense_paid", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("expense_paid")))
}

func TestInstrumentNilMetrics(t *testing.T) {
	var metrics *Metrics
	called := false
	handler := metrics.Instrument("noop", func(ctx context.Context, t *asynq.Task) error {
		called = true
		return nil
	})
	require.NoError(t, handler(context.Background(), asynq.NewTask(TaskTypeExpensePaid, nil)))
	assert.True(t, called)
}
