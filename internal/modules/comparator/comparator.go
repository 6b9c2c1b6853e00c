// Package comparator audits a user-supplied portfolio against the
// simulated optimum.
package comparator

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimizer"
	"github.com/aristath/frontier/internal/modules/simulation"
)

// Validation errors. These are user-facing: messages carry the offending
// values so the presentation layer can surface something actionable.
var (
	ErrWeightSumInvalid   = errors.New("weights do not sum to 1.0")
	ErrNegativeWeight     = errors.New("weights must be non-negative")
	ErrAssetCountMismatch = errors.New("weight count does not match asset count")
)

// WeightSumTolerance is the allowed deviation of a weight sum from 1.0.
const WeightSumTolerance = 1e-3

// Comparator computes a user portfolio's point and its deltas against the
// recommended optimum. When no prior optimization result is supplied it
// triggers its own simulation run with the defaults it was built with.
type Comparator struct {
	engine          *simulation.Engine
	simulationCount int
	seed            int64
	log             zerolog.Logger
}

// New creates a comparator. simulationCount and seed are used only when a
// comparison has to trigger its own simulation run.
func New(engine *simulation.Engine, simulationCount int, seed int64, log zerolog.Logger) *Comparator {
	return &Comparator{
		engine:          engine,
		simulationCount: simulationCount,
		seed:            seed,
		log:             log.With().Str("component", "comparator").Logger(),
	}
}

// ValidateWeights checks a user weight vector against the statistics
// dimension, the non-negativity constraint, and the full-investment sum.
// Sign and sum are enforced independently.
func ValidateWeights(stats domain.AssetStatistics, weights []float64) error {
	if len(weights) != stats.NumAssets() {
		return fmt.Errorf("%w: got %d weights for %d assets",
			ErrAssetCountMismatch, len(weights), stats.NumAssets())
	}

	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: weight %d is %.4f", ErrNegativeWeight, i, w)
		}
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", ErrWeightSumInvalid, sum)
	}

	return nil
}

// Compare produces the comparison of the user's allocation against the
// optimum selected by rule. A nil opt triggers a fresh simulation +
// optimization run over the same statistics and risk-free rate.
func (c *Comparator) Compare(
	stats domain.AssetStatistics,
	userWeights []float64,
	riskFreeRate float64,
	opt *domain.OptimizationResult,
	rule optimizer.SelectionRule,
) (domain.ComparisonResult, error) {
	if err := ValidateWeights(stats, userWeights); err != nil {
		return domain.ComparisonResult{}, err
	}

	userPoint := simulation.Score(stats, userWeights, riskFreeRate)

	if opt == nil {
		c.log.Debug().
			Int("simulations", c.simulationCount).
			Msg("No prior optimization result, running simulation")

		batch, err := c.engine.Run(stats, c.simulationCount, riskFreeRate, c.seed)
		if err != nil {
			return domain.ComparisonResult{}, fmt.Errorf("simulation for comparison failed: %w", err)
		}
		result, err := optimizer.Select(batch)
		if err != nil {
			return domain.ComparisonResult{}, fmt.Errorf("optimization for comparison failed: %w", err)
		}
		opt = &result
	}

	recommended := optimizer.Recommend(*opt, rule)

	return domain.ComparisonResult{
		User:        userPoint,
		Recommended: *opt,
		Deltas: domain.ComparisonDeltas{
			Return:     recommended.ExpectedReturn - userPoint.ExpectedReturn,
			Volatility: recommended.Volatility - userPoint.Volatility,
			Sharpe:     recommended.SharpeRatio - userPoint.SharpeRatio,
		},
	}, nil
}
