package graph

import (
	"context"
	"fmt"
	"time"

	"graph_server/core/domain"
	"graph_server/pkg/apperr"

	"golang.org/x/sync/errgroup"
)

const (
	opGetSchema       = "get_schema"
	schemaLoadTimeout = 2 * time.Minute

	labelsQuery            = "CALL db.labels() YIELD label RETURN collect(label) AS labels"
	relationshipTypesQuery = "CALL db.relationshipTypes() YIELD relationshipType RETURN collect(relationshipType) AS relationshipTypes"
	propertyKeysQuery      = "CALL db.propertyKeys() YIELD propertyKey RETURN collect(propertyKey) AS propertyKeys"

	// SHOW requires Neo4j 4.2+; older servers reject the syntax.
	constraintsQuery = "SHOW CONSTRAINTS YIELD name, type, entityType, labelsOrTypes, properties " +
		"RETURN name, type, entityType, labelsOrTypes, properties"
	indexesQuery = "SHOW INDEXES YIELD name, type, entityType, labelsOrTypes, properties, state " +
		"RETURN name, type, entityType, labelsOrTypes, properties, state"
)

// GetSchema introspects labels, relationship types and property keys, plus
// constraints and indexes where the server supports listing them. The five
// queries run concurrently. A failing constraints or indexes query yields an
// empty list; any other failure is returned. Concurrent misses for the same
// database share one introspection.
func (c *Connection) GetSchema(ctx context.Context, database string) (*domain.SchemaSnapshot, error) {
	if _, err := c.driver(); err != nil {
		return nil, err
	}
	db := c.resolveDatabase(database)

	if snapshot := c.cachedSchema(ctx, db); snapshot != nil {
		return snapshot, nil
	}

	// The shared load outlives any single caller; each caller waits on its own ctx.
	ch := c.schemaFlight.DoChan(db, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), schemaLoadTimeout)
		defer cancel()
		return c.loadSchema(loadCtx, db)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.SchemaSnapshot), nil
	case <-ctx.Done():
		return nil, apperr.Cancelled(opGetSchema, ctx.Err())
	}
}

func (c *Connection) cachedSchema(ctx context.Context, db string) *domain.SchemaSnapshot {
	if c.cache == nil {
		return nil
	}
	snapshot, ok, err := c.cache.Get(ctx, db)
	if err != nil {
		c.log.Warn().Err(err).Str("database", db).Msg("schema cache read failed")
		return nil
	}
	if !ok {
		return nil
	}
	return snapshot
}

func (c *Connection) loadSchema(ctx context.Context, db string) (*domain.SchemaSnapshot, error) {
	snapshot := &domain.SchemaSnapshot{Database: db}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot.Labels, err = c.stringList(gctx, labelsQuery, "labels", db)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.RelationshipTypes, err = c.stringList(gctx, relationshipTypesQuery, "relationshipTypes", db)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.PropertyKeys, err = c.stringList(gctx, propertyKeysQuery, "propertyKeys", db)
		return err
	})
	g.Go(func() error {
		snapshot.Constraints = c.bestEffort(gctx, "constraints", constraintsQuery, db)
		return nil
	})
	g.Go(func() error {
		snapshot.Indexes = c.bestEffort(gctx, "indexes", indexesQuery, db)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, db, snapshot); err != nil {
			c.log.Warn().Err(err).Str("database", db).Msg("schema cache write failed")
		}
	}
	return snapshot, nil
}

// stringList reads a single collect(...) column and deduplicates it.
func (c *Connection) stringList(ctx context.Context, query, column, db string) ([]string, error) {
	records, err := c.ExecuteRead(ctx, query, nil, db)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []string{}, nil
	}

	raw, _ := records[0][column].([]any)
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		} else if v != nil {
			values = append(values, fmt.Sprint(v))
		}
	}
	return domain.Dedupe(values), nil
}

func (c *Connection) bestEffort(ctx context.Context, what, query, db string) []domain.Record {
	records, err := c.ExecuteRead(ctx, query, nil, db)
	if err != nil {
		c.log.Debug().Err(err).Str("database", db).Msgf("listing %s not supported, returning empty list", what)
		return []domain.Record{}
	}
	return records
}

// FormatSchema renders a snapshot as text.
func FormatSchema(snapshot *domain.SchemaSnapshot) string {
	return snapshot.Text()
}
