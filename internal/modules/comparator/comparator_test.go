package comparator

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimizer"
	"github.com/aristath/frontier/internal/modules/simulation"
)

func testStats() domain.AssetStatistics {
	return domain.AssetStatistics{
		Assets:      []string{"AAA", "BBB", "CCC"},
		MeanReturns: []float64{0.08, 0.12, 0.05},
		Covariance: [][]float64{
			{0.04, 0, 0},
			{0, 0.09, 0},
			{0, 0, 0.01},
		},
		PeriodsPerYear: 252,
	}
}

func TestValidateWeights(t *testing.T) {
	stats := testStats()

	assert.NoError(t, ValidateWeights(stats, []float64{0.5, 0.5, 0}))

	// Sums within tolerance of 1.0 pass.
	assert.NoError(t, ValidateWeights(stats, []float64{0.5, 0.5, 0.0005}))

	err := ValidateWeights(stats, []float64{0.5, 0.3, 0.1})
	assert.ErrorIs(t, err, ErrWeightSumInvalid)
	assert.Contains(t, err.Error(), "0.9000")

	err = ValidateWeights(stats, []float64{1.2, -0.1, -0.1})
	assert.ErrorIs(t, err, ErrNegativeWeight)

	err = ValidateWeights(stats, []float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrAssetCountMismatch)
}

func TestCompareAgainstSuppliedResult(t *testing.T) {
	recommended := domain.PortfolioPoint{
		Weights:        []float64{0.25, 0.2, 0.55},
		ExpectedReturn: 0.0715,
		Volatility:     0.0965,
		SharpeRatio:    0.534,
	}
	opt := &domain.OptimizationResult{
		MaxSharpe:     recommended,
		MinVolatility: domain.PortfolioPoint{Volatility: 0.0900, ExpectedReturn: 0.0650, SharpeRatio: 0.50},
	}

	// No engine needed when the caller supplies the optimization result.
	cmp := New(nil, 0, 0, zerolog.Nop())

	result, err := cmp.Compare(testStats(), []float64{0.5, 0.5, 0}, 0.02, opt, optimizer.SelectMaxSharpe)
	require.NoError(t, err)

	assert.InDelta(t, 0.10, result.User.ExpectedReturn, 1e-12)
	assert.InDelta(t, math.Sqrt(0.0325), result.User.Volatility, 1e-12)

	assert.InDelta(t, recommended.ExpectedReturn-result.User.ExpectedReturn, result.Deltas.Return, 1e-12)
	assert.InDelta(t, recommended.Volatility-result.User.Volatility, result.Deltas.Volatility, 1e-12)
	assert.InDelta(t, recommended.SharpeRatio-result.User.SharpeRatio, result.Deltas.Sharpe, 1e-12)
}

func TestCompareMinVolatilityRule(t *testing.T) {
	minVol := domain.PortfolioPoint{Volatility: 0.0900, ExpectedReturn: 0.0650, SharpeRatio: 0.50}
	opt := &domain.OptimizationResult{
		MaxSharpe:     domain.PortfolioPoint{Volatility: 0.0965, ExpectedReturn: 0.0715, SharpeRatio: 0.534},
		MinVolatility: minVol,
	}

	cmp := New(nil, 0, 0, zerolog.Nop())

	result, err := cmp.Compare(testStats(), []float64{0.5, 0.5, 0}, 0.02, opt, optimizer.SelectMinVolatility)
	require.NoError(t, err)

	assert.InDelta(t, minVol.Volatility-result.User.Volatility, result.Deltas.Volatility, 1e-12)
}

func TestCompareTriggersOwnSimulation(t *testing.T) {
	engine := simulation.NewEngine(100_000, zerolog.Nop())
	cmp := New(engine, 2_000, 42, zerolog.Nop())

	result, err := cmp.Compare(testStats(), []float64{0.5, 0.5, 0}, 0.02, nil, optimizer.SelectMaxSharpe)
	require.NoError(t, err)

	require.NotNil(t, result.Recommended.Population)
	assert.Len(t, result.Recommended.Population.Points, 2_000)

	// The recommended point is drawn from the population, so the delta is
	// consistent with it.
	assert.InDelta(t,
		result.Recommended.MaxSharpe.SharpeRatio-result.User.SharpeRatio,
		result.Deltas.Sharpe, 1e-12)
}

func TestCompareRejectsInvalidWeightsBeforeSimulating(t *testing.T) {
	// A nil engine would panic if Compare reached the simulation; the
	// validation error must short-circuit first.
	cmp := New(nil, 0, 0, zerolog.Nop())

	_, err := cmp.Compare(testStats(), []float64{0.5, 0.3, 0.1}, 0.02, nil, optimizer.SelectMaxSharpe)
	assert.ErrorIs(t, err, ErrWeightSumInvalid)
}
