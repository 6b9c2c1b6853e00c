// Package simulation generates and scores random fully-invested portfolios
// over the long-only allocation simplex.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/internal/domain"
)

// Config errors reported to the caller.
var (
	ErrInvalidSimulationCount = errors.New("invalid simulation count")
	ErrInvalidRiskFreeRate    = errors.New("risk-free rate must be finite")
)

const (
	// varianceEpsilon bounds the negative values the quadratic form may
	// produce through floating error. Anything in [-epsilon, 0) clamps to 0;
	// more negative than that indicates a broken covariance matrix.
	varianceEpsilon = 1e-12

	// defaultChunkSize is the sub-batch size for parallel evaluation.
	// Chunks are independently seeded and concatenated in order, so the
	// result is identical no matter how the scheduler interleaves them.
	defaultChunkSize = 16384
)

// Engine draws random weight vectors and scores them against annualized
// asset statistics. Stateless between runs; every run is parameterized
// entirely by its inputs, including the random seed.
type Engine struct {
	maxCount  int
	chunkSize int
	log       zerolog.Logger
}

// NewEngine creates a simulation engine with an upper bound on the number
// of candidates per run.
func NewEngine(maxCount int, log zerolog.Logger) *Engine {
	return &Engine{
		maxCount:  maxCount,
		chunkSize: defaultChunkSize,
		log:       log.With().Str("component", "simulation").Logger(),
	}
}

// Run generates count candidate portfolios and scores each one. Given the
// same (stats, count, riskFreeRate, seed) the batch is bit-for-bit
// reproducible.
func (e *Engine) Run(stats domain.AssetStatistics, count int, riskFreeRate float64, seed int64) (*domain.SimulationBatch, error) {
	if count <= 0 || count > e.maxCount {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidSimulationCount, count, e.maxCount)
	}
	if math.IsNaN(riskFreeRate) || math.IsInf(riskFreeRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRiskFreeRate, riskFreeRate)
	}

	n := stats.NumAssets()
	if n == 0 {
		return nil, fmt.Errorf("statistics contain no assets")
	}

	mu := mat.NewVecDense(n, stats.MeanReturns)
	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigma.Set(i, j, stats.Covariance[i][j])
		}
	}

	points := make([]domain.PortfolioPoint, count)

	var g errgroup.Group
	for offset := 0; offset < count; offset += e.chunkSize {
		offset := offset
		size := e.chunkSize
		if offset+size > count {
			size = count - offset
		}
		chunkIndex := offset / e.chunkSize

		g.Go(func() error {
			rng := rand.New(rand.NewSource(chunkSeed(seed, chunkIndex)))
			e.runChunk(rng, mu, sigma, riskFreeRate, points[offset:offset+size])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.log.Debug().
		Int("count", count).
		Int("num_assets", n).
		Int64("seed", seed).
		Float64("risk_free_rate", riskFreeRate).
		Msg("Simulation batch complete")

	return &domain.SimulationBatch{
		ID:           uuid.NewString(),
		Statistics:   stats,
		RiskFreeRate: riskFreeRate,
		Seed:         seed,
		Points:       points,
	}, nil
}

// runChunk evaluates one sub-batch. Weight generation and the quadratic
// form are computed across the whole chunk with matrix products rather
// than scalar loops per candidate.
func (e *Engine) runChunk(rng *rand.Rand, mu *mat.VecDense, sigma *mat.Dense, riskFreeRate float64, out []domain.PortfolioPoint) {
	m := len(out)
	n := mu.Len()

	// W: one candidate per row, uniform draws normalized by their row sum.
	// Dividing independent non-negative draws by their sum is the standard
	// distribution-agnostic way to cover the fully-invested simplex.
	w := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		row := w.RawRowView(i)
		sum := 0.0
		for j := range row {
			row[j] = rng.Float64()
			sum += row[j]
		}
		if sum == 0 {
			for j := range row {
				row[j] = 1.0 / float64(n)
			}
			continue
		}
		floats.Scale(1.0/sum, row)
	}

	// Expected returns for the whole chunk: W * mu.
	rets := mat.NewVecDense(m, nil)
	rets.MulVec(w, mu)

	// Quadratic forms: row-wise dot of W and W*Sigma.
	ws := mat.NewDense(m, n, nil)
	ws.Mul(w, sigma)

	for i := 0; i < m; i++ {
		weights := make([]float64, n)
		copy(weights, w.RawRowView(i))

		ret := rets.AtVec(i)
		variance := floats.Dot(w.RawRowView(i), ws.RawRowView(i))
		vol := volatilityFromVariance(variance)

		out[i] = domain.PortfolioPoint{
			Weights:        weights,
			ExpectedReturn: ret,
			Volatility:     vol,
			SharpeRatio:    SharpeRatio(ret, vol, riskFreeRate),
		}
	}
}

// Score evaluates a single externally supplied weight vector with the same
// formulas the engine applies to generated candidates. The comparator uses
// this so the two paths cannot diverge.
func Score(stats domain.AssetStatistics, weights []float64, riskFreeRate float64) domain.PortfolioPoint {
	n := stats.NumAssets()

	var ret float64
	for i := 0; i < n; i++ {
		ret += weights[i] * stats.MeanReturns[i]
	}

	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * stats.Covariance[i][j]
		}
	}
	vol := volatilityFromVariance(variance)

	owned := make([]float64, n)
	copy(owned, weights)

	return domain.PortfolioPoint{
		Weights:        owned,
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    SharpeRatio(ret, vol, riskFreeRate),
	}
}

// SharpeRatio is (return - riskFree) / volatility, defined as 0 when
// volatility is 0 to keep downstream comparisons free of NaN/Inf.
func SharpeRatio(expectedReturn, volatility, riskFreeRate float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (expectedReturn - riskFreeRate) / volatility
}

// volatilityFromVariance converts a quadratic-form value to volatility,
// clamping tiny negative values caused by floating error.
func volatilityFromVariance(variance float64) float64 {
	if variance < 0 {
		if variance < -varianceEpsilon {
			// A materially negative quadratic form means the covariance
			// matrix was not PSD. Clamp anyway; the metrics computer is
			// responsible for rejecting degenerate inputs.
			return 0
		}
		return 0
	}
	return math.Sqrt(variance)
}

// chunkSeed derives a deterministic per-chunk seed from the batch seed.
// SplitMix64-style mixing keeps neighbouring chunk streams uncorrelated.
func chunkSeed(seed int64, chunk int) int64 {
	z := uint64(seed) + uint64(chunk+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
