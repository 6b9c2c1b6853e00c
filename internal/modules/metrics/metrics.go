// Package metrics turns periodic return series into annualized statistics
// for the simulation engine.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/frontier/internal/domain"
)

// Data errors reported to the caller. No local recovery - retries are not
// meaningful for pure numeric computation.
var (
	ErrInsufficientData  = errors.New("insufficient data: need at least 2 periods")
	ErrDimensionMismatch = errors.New("return columns have mismatched lengths")
	ErrDegenerateAsset   = errors.New("asset has zero return variance")
)

// Computer derives annualized expected returns and covariance from a
// ReturnSeries. Stateless; safe for concurrent use.
type Computer struct {
	log zerolog.Logger
}

// NewComputer creates a new metrics computer.
func NewComputer(log zerolog.Logger) *Computer {
	return &Computer{
		log: log.With().Str("component", "metrics").Logger(),
	}
}

// Compute produces AssetStatistics from T periods over N assets.
//
// Annualization is simple linear scaling: mean periodic return x P and
// sample covariance x P. This matches the source data pipeline and is a
// documented modeling choice, not compounding-adjusted.
func (c *Computer) Compute(series domain.ReturnSeries, periodsPerYear int) (domain.AssetStatistics, error) {
	n := series.NumAssets()
	if n == 0 {
		return domain.AssetStatistics{}, fmt.Errorf("%w: no assets", ErrInsufficientData)
	}
	if periodsPerYear <= 0 {
		return domain.AssetStatistics{}, fmt.Errorf("periods per year must be positive, got %d", periodsPerYear)
	}

	periods := series.NumPeriods()
	if periods < 2 {
		return domain.AssetStatistics{}, fmt.Errorf("%w: got %d", ErrInsufficientData, periods)
	}

	for i, col := range series.Returns {
		if len(col) != periods {
			return domain.AssetStatistics{}, fmt.Errorf(
				"%w: asset %s has %d periods, expected %d",
				ErrDimensionMismatch, series.Assets[i], len(col), periods,
			)
		}
	}

	p := float64(periodsPerYear)

	meanReturns := make([]float64, n)
	for i, col := range series.Returns {
		meanReturns[i] = stat.Mean(col, nil) * p
	}

	// A zero-variance column makes the covariance matrix singular along
	// that row. Reported, not silently dropped.
	for i, col := range series.Returns {
		if stat.Variance(col, nil) == 0 {
			return domain.AssetStatistics{}, fmt.Errorf("%w: asset %s", ErrDegenerateAsset, series.Assets[i])
		}
	}

	// Bessel-corrected sample covariance, scaled to annual. Computed
	// pairwise and mirrored so the matrix is exactly symmetric.
	covariance := make([][]float64, n)
	for i := range covariance {
		covariance[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := stat.Covariance(series.Returns[i], series.Returns[j], nil) * p
			covariance[i][j] = cov
			covariance[j][i] = cov
		}
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(meanReturns[i]) || math.IsInf(meanReturns[i], 0) {
			return domain.AssetStatistics{}, fmt.Errorf("non-finite mean return for asset %s", series.Assets[i])
		}
		for j := 0; j < n; j++ {
			if math.IsNaN(covariance[i][j]) || math.IsInf(covariance[i][j], 0) {
				return domain.AssetStatistics{}, fmt.Errorf("non-finite covariance for assets %s/%s", series.Assets[i], series.Assets[j])
			}
		}
	}

	assets := make([]string, n)
	copy(assets, series.Assets)

	c.log.Debug().
		Int("num_assets", n).
		Int("num_periods", periods).
		Int("periods_per_year", periodsPerYear).
		Msg("Computed annualized statistics")

	return domain.AssetStatistics{
		Assets:         assets,
		MeanReturns:    meanReturns,
		Covariance:     covariance,
		PeriodsPerYear: periodsPerYear,
	}, nil
}
