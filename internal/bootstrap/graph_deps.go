package bootstrap

import (
	"context"
	"sync"
	"time"

	neo4jadapter "graph_server/adapter/out/graph"
	"graph_server/config"
	"graph_server/core/port/out"
	graphsvc "graph_server/core/service/graph"
	"graph_server/infra/database"
	"graph_server/pkg/cache"
	"graph_server/pkg/logger"
	"graph_server/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	metricsWindow = 1024
	closeTimeout  = 10 * time.Second
)

// Dependencies holds every long-lived component of the process.
type Dependencies struct {
	Config      *config.Config
	Redis       *redis.Client // nil when REDIS_URL is unset or unreachable
	SchemaCache out.SchemaCache
	Metrics     *metrics.QueryMetrics
	Graph       *graphsvc.Connection
}

// NewDependencies builds the component graph. The returned cleanup closes the
// Neo4j connection and the cache exactly once, in reverse order of creation.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Schema cache: Redis when configured, in-process otherwise
	if cfg.RedisURL != "" {
		client, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, using in-process schema cache: %v", err)
		} else {
			deps.Redis = client
			deps.SchemaCache = cache.NewRedisSchemaCache(client, cfg.SchemaCacheTTL)
			cleanups = append(cleanups, func() { _ = client.Close() })
			logger.Info("Schema cache backed by Redis (ttl: %v)", cfg.SchemaCacheTTL)
		}
	}
	if deps.SchemaCache == nil {
		mem, err := cache.NewMemorySchemaCache(cfg.SchemaCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		deps.SchemaCache = mem
		cleanups = append(cleanups, mem.Close)
	}

	deps.Metrics = metrics.NewQueryMetrics(metricsWindow)

	zlog := logger.Default().Zerolog()
	factory := neo4jadapter.NewDriverFactory(neo4jadapter.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, zlog)

	deps.Graph = graphsvc.NewConnection(cfg.Graph, factory,
		graphsvc.WithLogger(zlog),
		graphsvc.WithSchemaCache(deps.SchemaCache),
		graphsvc.WithMetrics(deps.Metrics),
		graphsvc.WithConcurrency(cfg.QueryConcurrency()),
	)
	cleanups = append(cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := deps.Graph.Close(ctx); err != nil {
			logger.Warn("Error closing Neo4j connection: %v", err)
		}
	})

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		})
	}
	return deps, cleanup, nil
}
