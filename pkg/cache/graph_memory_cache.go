package cache

import (
	"context"
	"time"

	"graph_server/core/domain"
	"graph_server/core/port/out"

	"github.com/dgraph-io/ristretto/v2"
)

// MemorySchemaCache is the in-process fallback used when no Redis URL is set.
type MemorySchemaCache struct {
	cache *ristretto.Cache[string, *domain.SchemaSnapshot]
	ttl   time.Duration
}

var _ out.SchemaCache = (*MemorySchemaCache)(nil)

// NewMemorySchemaCache creates a cache sized for a few hundred databases.
func NewMemorySchemaCache(ttl time.Duration) (*MemorySchemaCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *domain.SchemaSnapshot]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemorySchemaCache{cache: c, ttl: ttl}, nil
}

func (c *MemorySchemaCache) Get(_ context.Context, database string) (*domain.SchemaSnapshot, bool, error) {
	snapshot, ok := c.cache.Get(database)
	return snapshot, ok, nil
}

// Set is visible to Get once it returns.
func (c *MemorySchemaCache) Set(_ context.Context, database string, snapshot *domain.SchemaSnapshot) error {
	c.cache.SetWithTTL(database, snapshot, 1, c.ttl)
	c.cache.Wait()
	return nil
}

func (c *MemorySchemaCache) Invalidate(_ context.Context, database string) error {
	c.cache.Del(database)
	return nil
}

// Close stops the cache's background goroutines.
func (c *MemorySchemaCache) Close() {
	c.cache.Close()
}
