// Package graph adapts the official Neo4j driver to the outbound driver port.
package graph

import (
	"context"
	"time"

	"graph_server/core/domain"
	"graph_server/core/port/out"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// =============================================================================
// Driver Factory
// =============================================================================

// BreakerConfig tunes the circuit breaker placed in front of session.Run.
type BreakerConfig struct {
	MaxFailures uint32        // consecutive connectivity failures before opening
	OpenTimeout time.Duration // time spent open before a half-open probe
}

// DriverFactory opens real Neo4j drivers.
type DriverFactory struct {
	breaker BreakerConfig
	log     zerolog.Logger
}

var _ out.DriverFactory = (*DriverFactory)(nil)

// NewDriverFactory creates a factory. Zero breaker values fall back to 5
// failures and 30 seconds.
func NewDriverFactory(breaker BreakerConfig, log zerolog.Logger) *DriverFactory {
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}
	if breaker.OpenTimeout <= 0 {
		breaker.OpenTimeout = 30 * time.Second
	}
	return &DriverFactory{breaker: breaker, log: log}
}

// Open creates a pooled driver and verifies connectivity before returning it.
// Returned errors are already classified.
func (f *DriverFactory) Open(ctx context.Context, s out.DriverSettings) (out.GraphDriver, error) {
	auth := neo4j.NoAuth()
	if s.Username != "" && s.Password != "" {
		auth = neo4j.BasicAuth(s.Username, s.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(s.URI, auth, func(c *neo4j.Config) {
		if s.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = s.MaxConnectionPoolSize
		}
		if s.MaxConnectionLifetime > 0 {
			c.MaxConnectionLifetime = s.MaxConnectionLifetime
		}
		if s.ConnectionTimeout > 0 {
			c.SocketConnectTimeout = s.ConnectionTimeout
			c.ConnectionAcquisitionTimeout = s.ConnectionTimeout
		}
	})
	if err != nil {
		return nil, classifyOpenError(s.URI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.WithoutCancel(ctx))
		return nil, classifyOpenError(s.URI, err)
	}

	return &neo4jDriver{
		driver: driver,
		uri:    s.URI,
		cb:     newBreaker(s.URI, f.breaker, f.log),
	}, nil
}

// =============================================================================
// Driver / Session / Cursor
// =============================================================================

type neo4jDriver struct {
	driver neo4j.DriverWithContext
	uri    string
	cb     *gobreaker.CircuitBreaker
}

func (d *neo4jDriver) NewSession(ctx context.Context, cfg out.SessionConfig) out.GraphSession {
	mode := neo4j.AccessModeRead
	if cfg.AccessMode == domain.AccessModeWrite {
		mode = neo4j.AccessModeWrite
	}
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: cfg.Database,
		AccessMode:   mode,
	})
	return &neo4jSession{session: session, driver: d}
}

func (d *neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type neo4jSession struct {
	session neo4j.SessionWithContext
	driver  *neo4jDriver
}

// Run goes through the breaker so a dead server fails fast instead of every
// caller waiting out the acquisition timeout.
func (s *neo4jSession) Run(ctx context.Context, query string, params map[string]any) (out.GraphCursor, error) {
	res, err := s.driver.cb.Execute(func() (interface{}, error) {
		return s.session.Run(ctx, query, params)
	})
	if err != nil {
		return nil, classifyRunError(s.driver.uri, err)
	}
	return &neo4jCursor{result: res.(neo4j.ResultWithContext)}, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type neo4jCursor struct {
	result neo4j.ResultWithContext
}

func (c *neo4jCursor) Next(ctx context.Context) bool {
	return c.result.Next(ctx)
}

func (c *neo4jCursor) Record() ([]string, []any) {
	rec := c.result.Record()
	if rec == nil {
		return nil, nil
	}
	return rec.Keys, rec.Values
}

func (c *neo4jCursor) Err() error {
	return c.result.Err()
}

func (c *neo4jCursor) Consume(ctx context.Context) (*domain.WriteSummary, error) {
	summary, err := c.result.Consume(ctx)
	if err != nil {
		return nil, err
	}
	return toWriteSummary(summary), nil
}
