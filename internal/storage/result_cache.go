package storage

import (
	"time"

	"lookuply-search-api/internal/models"

	"github.com/patrickmn/go-cache"
)

// ResultCache keeps the hit set of each search phase under its query_id so a
// later summarize call can resolve source ids without re-querying the index.
// Only index content is stored; the query text never is.
type ResultCache struct {
	cache *cache.Cache
}

// NewResultCache creates a cache whose entries expire after ttl and are
// purged every cleanupInterval.
func NewResultCache(ttl, cleanupInterval time.Duration) *ResultCache {
	return &ResultCache{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (c *ResultCache) Save(queryID string, hits []models.SearchHit) {
	stored := make([]models.SearchHit, len(hits))
	copy(stored, hits)
	c.cache.Set(queryID, stored, cache.DefaultExpiration)
}

func (c *ResultCache) Get(queryID string) ([]models.SearchHit, bool) {
	if x, found := c.cache.Get(queryID); found {
		return x.([]models.SearchHit), true
	}
	return nil, false
}
