package graph

import (
	"time"

	"graph_server/core/domain"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// summarySource is the part of neo4j.ResultSummary a write result needs.
type summarySource interface {
	Counters() neo4j.Counters
	StatementType() neo4j.StatementType
	ResultAvailableAfter() time.Duration
	ResultConsumedAfter() time.Duration
}

func toWriteSummary(s summarySource) *domain.WriteSummary {
	c := s.Counters()
	return &domain.WriteSummary{
		NodesCreated:           c.NodesCreated(),
		NodesDeleted:           c.NodesDeleted(),
		RelationshipsCreated:   c.RelationshipsCreated(),
		RelationshipsDeleted:   c.RelationshipsDeleted(),
		PropertiesSet:          c.PropertiesSet(),
		LabelsAdded:            c.LabelsAdded(),
		LabelsRemoved:          c.LabelsRemoved(),
		IndexesAdded:           c.IndexesAdded(),
		IndexesRemoved:         c.IndexesRemoved(),
		ConstraintsAdded:       c.ConstraintsAdded(),
		ConstraintsRemoved:     c.ConstraintsRemoved(),
		ContainsUpdates:        c.ContainsUpdates(),
		QueryType:              queryType(s.StatementType()),
		ResultAvailableAfterMS: s.ResultAvailableAfter().Milliseconds(),
		ResultConsumedAfterMS:  s.ResultConsumedAfter().Milliseconds(),
	}
}

func queryType(t neo4j.StatementType) string {
	switch t {
	case neo4j.StatementTypeReadOnly:
		return domain.QueryTypeReadOnly
	case neo4j.StatementTypeReadWrite:
		return domain.QueryTypeReadWrite
	case neo4j.StatementTypeWriteOnly:
		return domain.QueryTypeWriteOnly
	case neo4j.StatementTypeSchemaWrite:
		return domain.QueryTypeSchemaWrite
	default:
		return domain.QueryTypeUnknown
	}
}
