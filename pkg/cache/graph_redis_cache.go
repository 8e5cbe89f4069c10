// Package cache stores schema snapshots between introspection calls.
package cache

import (
	"context"
	"time"

	"graph_server/core/domain"
	"graph_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const schemaKeyPrefix = "graph:schema:"

// RedisSchemaCache keeps snapshots in Redis as JSON with a TTL.
type RedisSchemaCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ out.SchemaCache = (*RedisSchemaCache)(nil)

// NewRedisSchemaCache wraps an existing client.
func NewRedisSchemaCache(client redis.UniversalClient, ttl time.Duration) *RedisSchemaCache {
	return &RedisSchemaCache{client: client, ttl: ttl}
}

func schemaKey(database string) string {
	return schemaKeyPrefix + database
}

// Get returns (nil, false, nil) on a miss.
func (c *RedisSchemaCache) Get(ctx context.Context, database string) (*domain.SchemaSnapshot, bool, error) {
	data, err := c.client.Get(ctx, schemaKey(database)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot domain.SchemaSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, err
	}
	return &snapshot, true, nil
}

func (c *RedisSchemaCache) Set(ctx context.Context, database string, snapshot *domain.SchemaSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, schemaKey(database), data, c.ttl).Err()
}

func (c *RedisSchemaCache) Invalidate(ctx context.Context, database string) error {
	return c.client.Del(ctx, schemaKey(database)).Err()
}
