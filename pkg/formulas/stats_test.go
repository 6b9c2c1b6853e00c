package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDevAndVariance(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, Variance(nil))

	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// Sample variance with Bessel's correction: 32/7.
	assert.InDelta(t, 32.0/7.0, Variance(data), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(data), 1e-12)
}

func TestCovariance(t *testing.T) {
	assert.Equal(t, 0.0, Covariance(nil, nil))
	assert.Equal(t, 0.0, Covariance([]float64{1, 2}, []float64{1}))

	x := []float64{0.01, 0.02, 0.03}
	assert.InDelta(t, Variance(x), Covariance(x, x), 1e-12)
	assert.InDelta(t, -0.00005, Covariance(x, []float64{0.03, 0.01, 0.02}), 1e-12)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))

	returns := []float64{0.01, -0.02, 0.015, 0.005}
	assert.InDelta(t, StdDev(returns)*math.Sqrt(252), AnnualizedVolatility(returns), 1e-12)
}

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestRollingVolatility(t *testing.T) {
	assert.Empty(t, RollingVolatility([]float64{0.01}, 3))
	assert.Empty(t, RollingVolatility([]float64{0.01, 0.02, 0.03}, 1))

	returns := []float64{0.01, -0.02, 0.015, 0.005, -0.01, 0.02}
	rolling := RollingVolatility(returns, 3)
	require.Len(t, rolling, len(returns))

	// Warmup entries are zero, the rest annualized and positive.
	assert.Equal(t, 0.0, rolling[0])
	assert.Equal(t, 0.0, rolling[1])
	for _, v := range rolling[2:] {
		assert.Greater(t, v, 0.0)
	}
}

func TestSmoothedCloses(t *testing.T) {
	assert.Empty(t, SmoothedCloses([]float64{100}, 3))

	closes := []float64{100, 102, 104, 106, 108}
	smoothed := SmoothedCloses(closes, 3)
	require.Len(t, smoothed, len(closes))
	assert.InDelta(t, 102.0, smoothed[2], 1e-12)
	assert.InDelta(t, 106.0, smoothed[4], 1e-12)
}
