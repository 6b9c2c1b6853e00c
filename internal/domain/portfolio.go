// Package domain contains the core types shared across the frontier engine.
// All types here are plain data - no infrastructure dependencies.
package domain

// ReturnSeries is an ordered-by-date table of periodic (daily) fractional
// returns, one column per asset. Column order defines the canonical asset
// order for every downstream vector and matrix. Immutable once built.
type ReturnSeries struct {
	Assets  []string    // unique asset identifiers, in column order
	Returns [][]float64 // Returns[i] is the return column for Assets[i]
}

// NumAssets returns the number of asset columns.
func (s ReturnSeries) NumAssets() int {
	return len(s.Assets)
}

// NumPeriods returns the number of periods (rows). Columns are aligned,
// so the first column's length is authoritative.
func (s ReturnSeries) NumPeriods() int {
	if len(s.Returns) == 0 {
		return 0
	}
	return len(s.Returns[0])
}

// AssetStatistics holds annualized statistics derived from a ReturnSeries.
// MeanReturns and Covariance are both sized by the asset count; Covariance
// is symmetric within floating-point tolerance.
type AssetStatistics struct {
	Assets         []string    `json:"assets"`
	MeanReturns    []float64   `json:"mean_returns"`
	Covariance     [][]float64 `json:"covariance"`
	PeriodsPerYear int         `json:"periods_per_year"`
}

// NumAssets returns the dimension of the statistics.
func (s AssetStatistics) NumAssets() int {
	return len(s.Assets)
}

// PortfolioPoint is one evaluated allocation. Derived, never mutated after
// creation.
type PortfolioPoint struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Volatility     float64   `json:"volatility"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
}

// SimulationBatch is one simulation run: an ordered sequence of evaluated
// candidate portfolios plus the inputs that produced it. Point order is
// generation order - the optimizer's "first seen" tie-break depends on it.
type SimulationBatch struct {
	ID           string           `json:"id"`
	Statistics   AssetStatistics  `json:"statistics"`
	RiskFreeRate float64          `json:"risk_free_rate"`
	Seed         int64            `json:"seed"`
	Points       []PortfolioPoint `json:"points"`
}

// OptimizationResult holds the two selected optima plus the full simulated
// population for frontier visualization.
type OptimizationResult struct {
	MaxSharpe     PortfolioPoint   `json:"max_sharpe"`
	MinVolatility PortfolioPoint   `json:"min_volatility"`
	Population    *SimulationBatch `json:"-"`
}

// RiskLabel is the user-facing risk preference. It maps to a selection
// rule via a configuration table, not engine logic.
type RiskLabel string

const (
	RiskLow    RiskLabel = "Low"
	RiskMedium RiskLabel = "Medium"
	RiskHigh   RiskLabel = "High"
)

// ComparisonDeltas are signed differences, recommended minus user.
type ComparisonDeltas struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// ComparisonResult is the audit of a user-supplied portfolio against the
// computed optimum. Created on demand, not persisted.
type ComparisonResult struct {
	User        PortfolioPoint     `json:"user"`
	Recommended OptimizationResult `json:"recommended"`
	Deltas      ComparisonDeltas   `json:"deltas"`
}
