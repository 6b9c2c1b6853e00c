package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/calculations"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/metrics"
)

// RefreshStatisticsJob recomputes annualized statistics for the full
// stored universe and warms the calculation cache, so the first
// optimization request of the day does not pay the statistics pass.
type RefreshStatisticsJob struct {
	store          *history.Store
	computer       *metrics.Computer
	cache          *calculations.Cache
	periodsPerYear int
	lookbackDays   int
	log            zerolog.Logger
}

// NewRefreshStatisticsJob creates the nightly statistics refresh job.
func NewRefreshStatisticsJob(
	store *history.Store,
	computer *metrics.Computer,
	cache *calculations.Cache,
	periodsPerYear int,
	lookbackDays int,
	log zerolog.Logger,
) *RefreshStatisticsJob {
	return &RefreshStatisticsJob{
		store:          store,
		computer:       computer,
		cache:          cache,
		periodsPerYear: periodsPerYear,
		lookbackDays:   lookbackDays,
		log:            log.With().Str("job", "refresh_statistics").Logger(),
	}
}

// Name returns the job name.
func (j *RefreshStatisticsJob) Name() string {
	return "refresh_statistics"
}

// Run loads the stored universe, recomputes statistics, and caches them.
func (j *RefreshStatisticsJob) Run() error {
	if err := j.cache.PruneExpired(); err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune expired cache entries")
	}

	symbols, err := j.store.Symbols()
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(symbols) < 2 {
		j.log.Info().Int("symbols", len(symbols)).Msg("Not enough stored symbols, skipping refresh")
		return nil
	}

	series, err := j.store.LoadReturnSeries(symbols, j.lookbackDays)
	if err != nil {
		return fmt.Errorf("failed to load return series: %w", err)
	}

	stats, err := j.computer.Compute(series, j.periodsPerYear)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	key := calculations.HashAssets(stats.Assets)
	if err := j.cache.SetStatistics(key, stats, calculations.TTLStatistics); err != nil {
		return fmt.Errorf("failed to cache statistics: %w", err)
	}

	j.log.Info().
		Int("num_assets", stats.NumAssets()).
		Str("cache_key", key[:8]).
		Msg("Refreshed cached statistics")

	return nil
}
