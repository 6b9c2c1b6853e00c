// Package services wires the history store, cache, and metrics computer
// into the statistics lookups the HTTP handlers need.
package services

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/calculations"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/metrics"
)

// StatisticsService resolves annualized asset statistics for a universe,
// consulting the calculation cache before recomputing from price history.
type StatisticsService struct {
	store          *history.Store
	cache          *calculations.Cache
	computer       *metrics.Computer
	periodsPerYear int
	lookbackDays   int
	log            zerolog.Logger
}

// NewStatisticsService creates a statistics service.
func NewStatisticsService(
	store *history.Store,
	cache *calculations.Cache,
	computer *metrics.Computer,
	periodsPerYear int,
	lookbackDays int,
	log zerolog.Logger,
) *StatisticsService {
	return &StatisticsService{
		store:          store,
		cache:          cache,
		computer:       computer,
		periodsPerYear: periodsPerYear,
		lookbackDays:   lookbackDays,
		log:            log.With().Str("component", "statistics_service").Logger(),
	}
}

// ForSymbols returns statistics for a symbol universe, from cache when a
// fresh entry exists, otherwise recomputed from stored price history.
func (s *StatisticsService) ForSymbols(symbols []string) (domain.AssetStatistics, error) {
	key := calculations.HashAssets(symbols)

	if s.cache != nil {
		if stats, ok := s.cache.GetStatistics(key); ok {
			s.log.Debug().Str("cache_key", key[:8]).Msg("Using cached statistics")
			return stats, nil
		}
	}

	series, err := s.store.LoadReturnSeries(symbols, s.lookbackDays)
	if err != nil {
		return domain.AssetStatistics{}, fmt.Errorf("failed to load return series: %w", err)
	}

	stats, err := s.computer.Compute(series, s.periodsPerYear)
	if err != nil {
		return domain.AssetStatistics{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetStatistics(key, stats, calculations.TTLStatistics); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache statistics")
		}
	}

	return stats, nil
}

// ForSeries computes statistics for caller-supplied returns. Inline data
// bypasses the cache - there is no stable key for it.
func (s *StatisticsService) ForSeries(series domain.ReturnSeries) (domain.AssetStatistics, error) {
	return s.computer.Compute(series, s.periodsPerYear)
}
