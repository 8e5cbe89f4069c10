package out

import (
	"context"

	"graph_server/core/domain"
)

// SchemaCache stores schema snapshots per database.
type SchemaCache interface {
	Get(ctx context.Context, database string) (*domain.SchemaSnapshot, bool, error)
	Set(ctx context.Context, database string, snapshot *domain.SchemaSnapshot) error
	Invalidate(ctx context.Context, database string) error
}
