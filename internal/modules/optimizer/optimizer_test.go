package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
)

func batchOf(points ...domain.PortfolioPoint) *domain.SimulationBatch {
	return &domain.SimulationBatch{ID: "test", Points: points}
}

func point(sharpe, vol float64) domain.PortfolioPoint {
	return domain.PortfolioPoint{SharpeRatio: sharpe, Volatility: vol}
}

func TestSelectRejectsEmptyBatch(t *testing.T) {
	_, err := Select(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = Select(batchOf())
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestSelectFindsBothOptima(t *testing.T) {
	batch := batchOf(
		point(0.5, 0.20),
		point(0.9, 0.25), // best Sharpe
		point(0.3, 0.10), // least volatile
		point(0.7, 0.18),
	)

	result, err := Select(batch)
	require.NoError(t, err)

	assert.Equal(t, batch.Points[1], result.MaxSharpe)
	assert.Equal(t, batch.Points[2], result.MinVolatility)
	assert.Same(t, batch, result.Population)
}

func TestSelectSinglePoint(t *testing.T) {
	batch := batchOf(point(0.5, 0.20))

	result, err := Select(batch)
	require.NoError(t, err)

	assert.Equal(t, batch.Points[0], result.MaxSharpe)
	assert.Equal(t, batch.Points[0], result.MinVolatility)
}

func TestSelectSharpeTieBreaksOnVolatility(t *testing.T) {
	batch := batchOf(
		point(0.9, 0.25),
		point(0.9, 0.20), // same Sharpe, less volatile
	)

	result, err := Select(batch)
	require.NoError(t, err)

	assert.Equal(t, batch.Points[1], result.MaxSharpe)
}

func TestSelectVolatilityTieBreaksOnSharpe(t *testing.T) {
	batch := batchOf(
		point(0.3, 0.10),
		point(0.6, 0.10), // same volatility, better Sharpe
	)

	result, err := Select(batch)
	require.NoError(t, err)

	assert.Equal(t, batch.Points[1], result.MinVolatility)
}

func TestSelectFullTieKeepsFirstSeen(t *testing.T) {
	first := domain.PortfolioPoint{Weights: []float64{1, 0}, SharpeRatio: 0.5, Volatility: 0.2}
	second := domain.PortfolioPoint{Weights: []float64{0, 1}, SharpeRatio: 0.5, Volatility: 0.2}
	batch := batchOf(first, second)

	result, err := Select(batch)
	require.NoError(t, err)

	assert.Equal(t, first, result.MaxSharpe)
	assert.Equal(t, first, result.MinVolatility)
}

func TestRecommend(t *testing.T) {
	result := domain.OptimizationResult{
		MaxSharpe:     point(0.9, 0.25),
		MinVolatility: point(0.3, 0.10),
	}

	assert.Equal(t, result.MaxSharpe, Recommend(result, SelectMaxSharpe))
	assert.Equal(t, result.MinVolatility, Recommend(result, SelectMinVolatility))

	// Unknown rules fall back to max Sharpe.
	assert.Equal(t, result.MaxSharpe, Recommend(result, SelectionRule("bogus")))
}
