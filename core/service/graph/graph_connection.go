// Package graph implements the Neo4j connection manager: driver lifecycle,
// read/write execution with access-mode separation, schema introspection and
// connectivity probing.
package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"graph_server/config"
	"graph_server/core/port/out"
	"graph_server/pkg/apperr"
	"graph_server/pkg/graphvalue"
	"graph_server/pkg/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Connection owns one pooled driver handle. Query methods are safe for
// concurrent use; each call gets its own session.
type Connection struct {
	cfg        *config.GraphConfig
	factory    out.DriverFactory
	cache      out.SchemaCache
	metrics    *metrics.QueryMetrics
	normalizer graphvalue.Normalizer
	sem        *semaphore.Weighted
	log        zerolog.Logger

	schemaFlight singleflight.Group

	// connectMu serializes Connect and Close; mu guards drv only.
	connectMu sync.Mutex
	mu        sync.RWMutex
	drv       out.GraphDriver
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger. Default is zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(c *Connection) { c.log = log }
}

// WithSchemaCache enables schema snapshot caching.
func WithSchemaCache(cache out.SchemaCache) Option {
	return func(c *Connection) { c.cache = cache }
}

// WithMetrics records per-operation latency and outcomes.
func WithMetrics(m *metrics.QueryMetrics) Option {
	return func(c *Connection) { c.metrics = m }
}

// WithConcurrency bounds the number of blocking driver calls in flight.
// Defaults to the configured pool size.
func WithConcurrency(n int) Option {
	return func(c *Connection) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewConnection creates a disconnected Connection.
func NewConnection(cfg *config.GraphConfig, factory out.DriverFactory, opts ...Option) *Connection {
	c := &Connection{
		cfg:        cfg,
		factory:    factory,
		normalizer: graphvalue.Normalizer{IncludeMetadata: cfg.IncludeMetadata},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sem == nil {
		c.sem = semaphore.NewWeighted(int64(max(cfg.MaxConnectionPoolSize, 1)))
	}
	c.log = c.log.With().Str("component", "graph").Str("uri", cfg.BoltURI()).Logger()
	return c
}

// Config returns the configuration the connection was built with.
func (c *Connection) Config() *config.GraphConfig {
	return c.cfg
}

// IsConnected reports whether a driver handle is held.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drv != nil
}

// Connect opens the driver and verifies connectivity. It is a no-op when
// already connected. Failures are not retried.
func (c *Connection) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.IsConnected() {
		return nil
	}

	uri := c.cfg.BoltURI()
	settings := out.DriverSettings{
		URI:                   uri,
		Encrypted:             c.cfg.Encrypted,
		MaxConnectionLifetime: c.cfg.MaxConnectionLifetime,
		MaxConnectionPoolSize: c.cfg.MaxConnectionPoolSize,
		ConnectionTimeout:     c.cfg.ConnectionTimeout,
	}
	if c.cfg.AuthEnabled() {
		settings.Username = c.cfg.Username
		settings.Password = c.cfg.Password
	}

	start := time.Now()
	drv, err := offload(ctx, nil, func(ctx context.Context) (out.GraphDriver, error) {
		return c.factory.Open(ctx, settings)
	}, func(late out.GraphDriver) {
		_ = late.Close(context.Background())
	})
	if err != nil {
		err = classifyConnectError(uri, err)
		c.log.Error().Err(err).Str("operation", "connect").Msg("failed to connect to neo4j")
		return err
	}

	c.mu.Lock()
	c.drv = drv
	c.mu.Unlock()

	c.log.Info().
		Str("database", c.cfg.Database).
		Bool("auth_enabled", c.cfg.AuthEnabled()).
		Dur("duration", time.Since(start)).
		Msg("connected to neo4j")
	return nil
}

// Close releases the driver. Safe to call when already closed.
func (c *Connection) Close(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	drv := c.drv
	c.drv = nil
	c.mu.Unlock()

	if drv == nil {
		return nil
	}

	_, err := offload(ctx, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, drv.Close(context.WithoutCancel(ctx))
	}, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("operation", "close").Msg("error closing neo4j driver")
		return err
	}
	c.log.Info().Msg("neo4j connection closed")
	return nil
}

func (c *Connection) driver() (out.GraphDriver, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.drv == nil {
		return nil, apperr.NotConnected()
	}
	return c.drv, nil
}

func (c *Connection) resolveDatabase(database string) string {
	if database != "" {
		return database
	}
	return c.cfg.Database
}

// classifyConnectError keeps factory classifications and maps the rest.
func classifyConnectError(uri string, err error) error {
	switch {
	case apperr.IsAppError(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Cancelled("connect", err)
	default:
		return apperr.ConnectionFailure(uri, err)
	}
}
