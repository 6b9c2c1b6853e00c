package calculations

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/domain"
)

func testCache(t *testing.T) *Cache {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewCache(db, zerolog.Nop())
}

func testStatistics() domain.AssetStatistics {
	return domain.AssetStatistics{
		Assets:      []string{"AAA", "BBB"},
		MeanReturns: []float64{0.08, 0.12},
		Covariance: [][]float64{
			{0.04, 0.01},
			{0.01, 0.09},
		},
		PeriodsPerYear: 252,
	}
}

func TestHashAssetsIsOrderIndependent(t *testing.T) {
	a := HashAssets([]string{"AAPL", "MSFT", "GOOG"})
	b := HashAssets([]string{"GOOG", "AAPL", "MSFT"})
	c := HashAssets([]string{"AAPL", "MSFT"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32) // 16 bytes hex-encoded
}

func TestStatisticsRoundTrip(t *testing.T) {
	cache := testCache(t)
	stats := testStatistics()
	key := HashAssets(stats.Assets)

	_, ok := cache.GetStatistics(key)
	assert.False(t, ok)

	require.NoError(t, cache.SetStatistics(key, stats, time.Hour))

	got, ok := cache.GetStatistics(key)
	require.True(t, ok)
	assert.Equal(t, stats, got)
}

func TestSetStatisticsOverwrites(t *testing.T) {
	cache := testCache(t)
	key := HashAssets([]string{"AAA", "BBB"})

	first := testStatistics()
	require.NoError(t, cache.SetStatistics(key, first, time.Hour))

	second := testStatistics()
	second.MeanReturns = []float64{0.01, 0.02}
	require.NoError(t, cache.SetStatistics(key, second, time.Hour))

	got, ok := cache.GetStatistics(key)
	require.True(t, ok)
	assert.Equal(t, second.MeanReturns, got.MeanReturns)
}

func TestExpiredEntriesMiss(t *testing.T) {
	cache := testCache(t)
	key := HashAssets([]string{"AAA", "BBB"})

	require.NoError(t, cache.SetStatistics(key, testStatistics(), -time.Minute))

	_, ok := cache.GetStatistics(key)
	assert.False(t, ok)
}

func TestPruneExpired(t *testing.T) {
	cache := testCache(t)

	expired := HashAssets([]string{"OLD"})
	fresh := HashAssets([]string{"NEW"})
	require.NoError(t, cache.SetStatistics(expired, testStatistics(), -time.Minute))
	require.NoError(t, cache.SetStatistics(fresh, testStatistics(), time.Hour))

	require.NoError(t, cache.PruneExpired())

	_, ok := cache.GetStatistics(expired)
	assert.False(t, ok)
	_, ok = cache.GetStatistics(fresh)
	assert.True(t, ok)
}
