package in

import (
	"context"

	"graph_server/core/domain"
)

// GraphService is the surface used by the tool layer and the HTTP adapter.
// An empty database argument selects the configured default.
type GraphService interface {
	ExecuteRead(ctx context.Context, query string, params map[string]any, database string) ([]domain.Record, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any, database string) (*domain.WriteSummary, error)
	RunQuery(ctx context.Context, req *RunQueryRequest) (*domain.QueryResult, error)
	GetSchema(ctx context.Context, database string) (*domain.SchemaSnapshot, error)
	TestConnection(ctx context.Context) *domain.ConnectionStatus
	ConnectionInfo(ctx context.Context) *domain.ConnectionInfo
}

type RunQueryRequest struct {
	Query      string         `json:"query" validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Database   string         `json:"database,omitempty"`
	ReadOnly   *bool          `json:"read_only,omitempty"`
}

// IsReadOnly defaults to true.
func (r *RunQueryRequest) IsReadOnly() bool {
	return r.ReadOnly == nil || *r.ReadOnly
}
