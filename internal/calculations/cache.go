// Package calculations caches expensive derived results so repeated
// optimization requests over the same universe skip the statistics pass.
package calculations

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/domain"
)

// TTLStatistics is how long cached asset statistics stay valid. History
// only gains one row per trading day, so a day is the natural horizon.
const TTLStatistics = 24 * time.Hour

const categoryStatistics = "asset_statistics"

// Cache stores msgpack-encoded blobs in the cache database with a TTL.
type Cache struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCache creates a calculation cache backed by the cache database.
func NewCache(db *database.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// HashAssets creates a deterministic cache key from an asset universe.
// Assets are sorted so the key is order-independent.
func HashAssets(assets []string) string {
	sorted := make([]string, len(assets))
	copy(sorted, assets)
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h[:16])
}

// GetStatistics returns cached statistics for a key, or false when the
// entry is missing, expired, or unreadable. Cache failures are never
// fatal - the caller just recomputes.
func (c *Cache) GetStatistics(key string) (domain.AssetStatistics, bool) {
	var blob []byte
	err := c.db.QueryRow(
		`SELECT value FROM calc_cache WHERE category = ? AND key = ? AND expires_at > ?`,
		categoryStatistics, key, time.Now().Unix(),
	).Scan(&blob)
	if err != nil {
		return domain.AssetStatistics{}, false
	}

	var stats domain.AssetStatistics
	if err := msgpack.Unmarshal(blob, &stats); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to decode cached statistics, recalculating")
		return domain.AssetStatistics{}, false
	}

	return stats, true
}

// SetStatistics stores statistics under a key with a TTL.
func (c *Cache) SetStatistics(key string, stats domain.AssetStatistics, ttl time.Duration) error {
	blob, err := msgpack.Marshal(stats)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(
		`INSERT INTO calc_cache (category, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(category, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		categoryStatistics, key, blob, time.Now().Add(ttl).Unix(),
	)
	return err
}

// PruneExpired removes entries past their TTL.
func (c *Cache) PruneExpired() error {
	result, err := c.db.Exec(`DELETE FROM calc_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return err
	}
	if removed, err := result.RowsAffected(); err == nil && removed > 0 {
		c.log.Debug().Int64("removed", removed).Msg("Pruned expired cache entries")
	}
	return nil
}
