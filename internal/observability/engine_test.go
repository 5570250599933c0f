package observability

import (
	"testing"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasuredEngine_ObservesIterations(t *testing.T) {
	m := NewMetricsForTesting()
	engine := NewMeasuredEngine(correction.New(), m)

	out, err := engine.Compute(correction.Input{FluidTemperatureC: 42, ObservedDensityGcc: 0.92})
	require.NoError(t, err)
	assert.InDelta(t, 0.934516, out.Density20Gcc, 0)

	count, sum := histogramSample(t, m.SolverIterations)
	assert.Equal(t, uint64(1), count)
	assert.InDelta(t, 7, sum, 0)
}

func TestMeasuredEngine_SkipsFailures(t *testing.T) {
	m := NewMetricsForTesting()
	engine := NewMeasuredEngine(correction.New(), m)

	_, err := engine.Compute(correction.Input{FluidTemperatureC: 1000, ObservedDensityGcc: 0.8})
	require.ErrorIs(t, err, correction.ErrConvergence)

	_, err = engine.Compute(correction.Input{FluidTemperatureC: 20, ObservedDensityGcc: -1})
	require.ErrorIs(t, err, correction.ErrInvalidInput)

	count, _ := histogramSample(t, m.SolverIterations)
	assert.Zero(t, count)
}

func histogramSample(t *testing.T, h prometheus.Histogram) (uint64, float64) {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, h.Write(&metric))
	return metric.GetHistogram().GetSampleCount(), metric.GetHistogram().GetSampleSum()
}
