package out

import (
	"context"
	"time"

	"graph_server/core/domain"
)

// DriverSettings are the parameters used to open a pooled driver.
// Credentials are sent only when both Username and Password are set.
type DriverSettings struct {
	URI                   string
	Username              string
	Password              string
	Encrypted             bool
	MaxConnectionLifetime time.Duration
	MaxConnectionPoolSize int
	ConnectionTimeout     time.Duration
}

// DriverFactory opens a driver and verifies connectivity. Errors are
// classified as apperr AuthenticationFailed, ServiceUnavailable or
// ConnectionFailure.
type DriverFactory interface {
	Open(ctx context.Context, settings DriverSettings) (GraphDriver, error)
}

// SessionConfig binds a session to one database and access mode.
type SessionConfig struct {
	Database   string
	AccessMode domain.AccessMode
}

// GraphDriver is a pooled, long-lived handle safe for concurrent use.
type GraphDriver interface {
	NewSession(ctx context.Context, cfg SessionConfig) GraphSession
	Close(ctx context.Context) error
}

// GraphSession is a short-lived unit of work. Calls block.
type GraphSession interface {
	Run(ctx context.Context, query string, params map[string]any) (GraphCursor, error)
	Close(ctx context.Context) error
}

// GraphCursor streams the records of one query.
type GraphCursor interface {
	Next(ctx context.Context) bool
	// Record returns the column names and raw values of the current row.
	Record() (keys []string, values []any)
	Err() error
	// Consume discards remaining rows and returns the execution summary.
	Consume(ctx context.Context) (*domain.WriteSummary, error)
}
