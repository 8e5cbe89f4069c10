package graph

import (
	"context"
	"errors"
	"strings"
	"time"

	"graph_server/core/domain"
	"graph_server/core/port/in"
	"graph_server/core/port/out"
	"graph_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	opExecuteRead  = "execute_read"
	opExecuteWrite = "execute_write"
)

var _ in.GraphService = (*Connection)(nil)

// ExecuteRead runs query in a read session and returns every row, normalized.
func (c *Connection) ExecuteRead(ctx context.Context, query string, params map[string]any, database string) ([]domain.Record, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	return c.read(ctx, opExecuteRead, query, params, c.resolveDatabase(database))
}

// ExecuteWrite runs query in a write session and returns its counters.
// Rows produced by the query are discarded.
func (c *Connection) ExecuteWrite(ctx context.Context, query string, params map[string]any, database string) (*domain.WriteSummary, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	drv, err := c.driver()
	if err != nil {
		return nil, err
	}
	db := c.resolveDatabase(database)
	log := c.opLogger(opExecuteWrite, db)

	start := time.Now()
	summary, err := offload(ctx, c.sem, func(ctx context.Context) (*domain.WriteSummary, error) {
		defer c.begin()()
		return c.consumeWrite(ctx, drv, db, query, params)
	}, nil)
	c.observe(opExecuteWrite, start, err)
	if err != nil {
		return nil, c.queryError(log, opExecuteWrite, err)
	}

	summary.Database = db
	log.Debug().
		Int("nodes_created", summary.NodesCreated).
		Int("properties_set", summary.PropertiesSet).
		Dur("duration", time.Since(start)).
		Msg("write query executed")

	if c.cache != nil && summary.ChangesSchema() {
		if err := c.cache.Invalidate(ctx, db); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate schema cache")
		}
	}
	return summary, nil
}

// RunQuery dispatches on req.ReadOnly, which defaults to true.
func (c *Connection) RunQuery(ctx context.Context, req *in.RunQueryRequest) (*domain.QueryResult, error) {
	if req == nil {
		return nil, apperr.InvalidQuery("query cannot be empty")
	}

	if req.IsReadOnly() {
		records, err := c.ExecuteRead(ctx, req.Query, req.Parameters, req.Database)
		if err != nil {
			return nil, err
		}
		return &domain.QueryResult{Type: "read", Records: records, Count: len(records)}, nil
	}

	summary, err := c.ExecuteWrite(ctx, req.Query, req.Parameters, req.Database)
	if err != nil {
		return nil, err
	}
	return &domain.QueryResult{Type: "write", Statistics: summary}, nil
}

// read is shared by ExecuteRead, schema introspection and the probe.
func (c *Connection) read(ctx context.Context, op, query string, params map[string]any, db string) ([]domain.Record, error) {
	drv, err := c.driver()
	if err != nil {
		return nil, err
	}
	log := c.opLogger(op, db)

	start := time.Now()
	records, err := offload(ctx, c.sem, func(ctx context.Context) ([]domain.Record, error) {
		defer c.begin()()
		return c.collectRows(ctx, drv, db, query, params)
	}, nil)
	c.observe(op, start, err)
	if err != nil {
		return nil, c.queryError(log, op, err)
	}

	log.Debug().Int("records", len(records)).Dur("duration", time.Since(start)).Msg("read query executed")
	return records, nil
}

func (c *Connection) collectRows(ctx context.Context, drv out.GraphDriver, db, query string, params map[string]any) ([]domain.Record, error) {
	session := drv.NewSession(ctx, out.SessionConfig{Database: db, AccessMode: domain.AccessModeRead})
	defer session.Close(context.WithoutCancel(ctx))

	cursor, err := session.Run(ctx, query, orEmpty(params))
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0)
	for cursor.Next(ctx) {
		keys, values := cursor.Record()
		records = append(records, c.normalizer.Record(keys, values))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Connection) consumeWrite(ctx context.Context, drv out.GraphDriver, db, query string, params map[string]any) (*domain.WriteSummary, error) {
	session := drv.NewSession(ctx, out.SessionConfig{Database: db, AccessMode: domain.AccessModeWrite})
	defer session.Close(context.WithoutCancel(ctx))

	cursor, err := session.Run(ctx, query, orEmpty(params))
	if err != nil {
		return nil, err
	}
	return cursor.Consume(ctx)
}

func (c *Connection) opLogger(op, db string) zerolog.Logger {
	return c.log.With().
		Str("operation", op).
		Str("database", db).
		Str("op_id", uuid.NewString()).
		Logger()
}

// queryError keeps classified errors, turns context errors into Cancelled and
// wraps everything else as QueryExecution with the driver message intact.
func (c *Connection) queryError(log zerolog.Logger, op string, err error) error {
	var classified error
	switch {
	case apperr.IsAppError(err):
		classified = err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		classified = apperr.Cancelled(op, err)
	default:
		classified = apperr.QueryExecution(op, err)
	}
	log.Error().Err(classified).Msg("neo4j query failed")
	return classified
}

func (c *Connection) begin() func() {
	if c.metrics == nil {
		return func() {}
	}
	return c.metrics.Begin()
}

func (c *Connection) observe(op string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.Observe(op, time.Since(start), err)
	}
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return apperr.InvalidQuery("query cannot be empty")
	}
	return nil
}

func orEmpty(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return params
}
