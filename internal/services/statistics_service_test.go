package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/calculations"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/metrics"
)

func testService(t *testing.T) (*StatisticsService, *history.Store) {
	t.Helper()
	log := zerolog.Nop()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { historyDB.Close() })
	require.NoError(t, historyDB.Migrate())

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { cacheDB.Close() })
	require.NoError(t, cacheDB.Migrate())

	store := history.NewStore(historyDB, log)
	cache := calculations.NewCache(cacheDB, log)
	computer := metrics.NewComputer(log)

	return NewStatisticsService(store, cache, computer, 252, 252, log), store
}

func seedHistory(t *testing.T, store *history.Store) {
	t.Helper()
	for symbol, base := range map[string]float64{"AAA": 100, "BBB": 50} {
		closes := make([]history.DailyClose, 10)
		price := base
		for i := range closes {
			// Alternating moves so neither column is degenerate.
			if i%2 == 0 {
				price *= 1.01
			} else {
				price *= 0.995
			}
			closes[i] = history.DailyClose{
				Date:  fmt.Sprintf("2024-01-%02d", i+2),
				Close: price,
			}
		}
		require.NoError(t, store.SaveCloses(symbol, closes))
	}
}

func TestForSymbolsComputesAndCaches(t *testing.T) {
	service, store := testService(t)
	seedHistory(t, store)

	stats, err := service.ForSymbols([]string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, stats.Assets)
	assert.Equal(t, 252, stats.PeriodsPerYear)

	// A second lookup is served from the cache: rewriting the underlying
	// prices must not change the answer.
	require.NoError(t, store.SaveCloses("AAA", []history.DailyClose{
		{Date: "2024-01-02", Close: 9999},
		{Date: "2024-01-03", Close: 1},
	}))

	cached, err := service.ForSymbols([]string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Equal(t, stats, cached)
}

func TestForSymbolsFailsWithoutHistory(t *testing.T) {
	service, _ := testService(t)

	_, err := service.ForSymbols([]string{"AAA", "BBB"})
	assert.Error(t, err)
}

func TestForSeriesBypassesStore(t *testing.T) {
	// No store or cache at all: inline series go straight to the computer.
	service := NewStatisticsService(nil, nil, metrics.NewComputer(zerolog.Nop()), 252, 252, zerolog.Nop())

	stats, err := service.ForSeries(domain.ReturnSeries{
		Assets: []string{"AAA", "BBB"},
		Returns: [][]float64{
			{0.01, 0.02, 0.03},
			{0.03, 0.01, 0.02},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.02*252, stats.MeanReturns[0], 1e-12)
}
