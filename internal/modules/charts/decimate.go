// Package charts prepares engine output for the presentation layer. No
// rendering happens here - only plain numeric data shaping.
package charts

import (
	"github.com/aristath/frontier/internal/domain"
)

// FrontierPoint is one scatter point of the simulated population. Weights
// are omitted - a 400k-point scatter does not need per-point allocations.
type FrontierPoint struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// DecimatePopulation samples a batch down to at most maxPoints for
// rendering, preserving generation order via uniform stride sampling.
// The selected optima are appended so they always survive decimation.
func DecimatePopulation(result domain.OptimizationResult, maxPoints int) []FrontierPoint {
	population := result.Population
	if population == nil || len(population.Points) == 0 {
		return nil
	}
	if maxPoints <= 0 {
		maxPoints = len(population.Points)
	}

	stride := 1
	if len(population.Points) > maxPoints {
		stride = (len(population.Points) + maxPoints - 1) / maxPoints
	}

	points := make([]FrontierPoint, 0, maxPoints+2)
	for i := 0; i < len(population.Points); i += stride {
		p := population.Points[i]
		points = append(points, FrontierPoint{
			ExpectedReturn: p.ExpectedReturn,
			Volatility:     p.Volatility,
			SharpeRatio:    p.SharpeRatio,
		})
	}

	for _, optimum := range []domain.PortfolioPoint{result.MaxSharpe, result.MinVolatility} {
		points = append(points, FrontierPoint{
			ExpectedReturn: optimum.ExpectedReturn,
			Volatility:     optimum.Volatility,
			SharpeRatio:    optimum.SharpeRatio,
		})
	}

	return points
}
