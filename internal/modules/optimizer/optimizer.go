// Package optimizer selects the optimal points from a simulated portfolio
// population. It is a pure reduction - no randomness, no side effects.
package optimizer

import (
	"errors"

	"github.com/aristath/frontier/internal/domain"
)

// ErrEmptyBatch indicates a caller handed the optimizer a batch with no
// points. This is a programming-contract violation, not a user error.
var ErrEmptyBatch = errors.New("simulation batch is empty")

// SelectionRule names which optimum a risk preference surfaces.
type SelectionRule string

const (
	SelectMaxSharpe     SelectionRule = "max_sharpe"
	SelectMinVolatility SelectionRule = "min_volatility"
)

// Select reduces a batch to its max-Sharpe and min-volatility points.
//
// Tie-breaks are deterministic given a deterministic batch:
//   - max Sharpe: greatest Sharpe, then lowest volatility, then first seen
//   - min volatility: least volatility, then highest Sharpe, then first seen
//
// "First seen" is the generation order of the batch.
func Select(batch *domain.SimulationBatch) (domain.OptimizationResult, error) {
	if batch == nil || len(batch.Points) == 0 {
		return domain.OptimizationResult{}, ErrEmptyBatch
	}

	maxSharpeIdx := 0
	minVolIdx := 0

	for i := 1; i < len(batch.Points); i++ {
		p := batch.Points[i]

		best := batch.Points[maxSharpeIdx]
		if p.SharpeRatio > best.SharpeRatio ||
			(p.SharpeRatio == best.SharpeRatio && p.Volatility < best.Volatility) {
			maxSharpeIdx = i
		}

		calm := batch.Points[minVolIdx]
		if p.Volatility < calm.Volatility ||
			(p.Volatility == calm.Volatility && p.SharpeRatio > calm.SharpeRatio) {
			minVolIdx = i
		}
	}

	return domain.OptimizationResult{
		MaxSharpe:     batch.Points[maxSharpeIdx],
		MinVolatility: batch.Points[minVolIdx],
		Population:    batch,
	}, nil
}

// Recommend picks the point a selection rule surfaces. Unknown rules fall
// back to max Sharpe, matching the Medium-preference default.
func Recommend(result domain.OptimizationResult, rule SelectionRule) domain.PortfolioPoint {
	if rule == SelectMinVolatility {
		return result.MinVolatility
	}
	return result.MaxSharpe
}
