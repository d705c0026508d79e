package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricSolveTotal, 1, T("day", "Monday"))
	m.Counter(MetricSolveTotal, 2, T("day", "Monday"))
	assert.Equal(t, int64(3), m.GetCounter(MetricSolveTotal, T("day", "Monday")))
	assert.Equal(t, int64(0), m.GetCounter(MetricSolveTotal, T("day", "Tuesday")))

	m.Gauge(MetricScheduleEntries, 42, T("day", "Monday"))
	assert.Equal(t, 42.0, m.GetGauge(MetricScheduleEntries, T("day", "Monday")))

	m.Histogram(MetricSolveDuration, 1.5)
	m.Histogram(MetricSolveDuration, 2.5)
	assert.Equal(t, []float64{1.5, 2.5}, m.GetHistogram(MetricSolveDuration))

	m.Timing(MetricSolveDuration, 10*time.Millisecond)
	assert.Len(t, m.GetTimings(MetricSolveDuration), 1)
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.Counter("x", 1)
		m.Gauge("x", 1)
		m.Histogram("x", 1)
		m.Timing("x", time.Second)
	})
}

func TestHealthRegistry(t *testing.T) {
	reg := NewHealthRegistry()
	reg.Register(NewFuncChecker("cache", func(ctx context.Context) error { return nil }))
	reg.Register(NewFuncChecker("store", func(ctx context.Context) error { return assert.AnError }))

	results := reg.CheckAll(context.Background())
	require := assert.New(t)
	require.Len(results, 2)
	require.Equal(HealthStatusUp, results[0].Status)
	require.Equal(HealthStatusDown, results[1].Status)
	require.False(reg.Healthy(context.Background()))
}

func TestTimeOperationResult(t *testing.T) {
	m := NewInMemoryMetrics()
	result, err := TimeOperationResult(context.Background(), nil, m, "test.op", func() (int, error) {
		return 7, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Len(t, m.GetTimings("test.op"), 1)
}
