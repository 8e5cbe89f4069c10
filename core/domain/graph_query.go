package domain

// AccessMode selects the session routing and the result shape.
type AccessMode int

const (
	AccessModeRead AccessMode = iota
	AccessModeWrite
)

func (m AccessMode) String() string {
	if m == AccessModeWrite {
		return "write"
	}
	return "read"
}

// Record is one normalized result row keyed by column name.
type Record map[string]any

// Query types reported in WriteSummary.QueryType.
const (
	QueryTypeReadOnly    = "r"
	QueryTypeReadWrite   = "rw"
	QueryTypeWriteOnly   = "w"
	QueryTypeSchemaWrite = "s"
	QueryTypeUnknown     = ""
)

// WriteSummary carries the effects of a write query. Rows returned by the
// query are not part of it.
type WriteSummary struct {
	NodesCreated         int `json:"nodes_created"`
	NodesDeleted         int `json:"nodes_deleted"`
	RelationshipsCreated int `json:"relationships_created"`
	RelationshipsDeleted int `json:"relationships_deleted"`
	PropertiesSet        int `json:"properties_set"`
	LabelsAdded          int `json:"labels_added"`
	LabelsRemoved        int `json:"labels_removed"`
	IndexesAdded         int `json:"indexes_added"`
	IndexesRemoved       int `json:"indexes_removed"`
	ConstraintsAdded     int `json:"constraints_added"`
	ConstraintsRemoved   int `json:"constraints_removed"`

	ContainsUpdates        bool   `json:"contains_updates"`
	QueryType              string `json:"query_type"`
	ResultAvailableAfterMS int64  `json:"result_available_after_ms"`
	ResultConsumedAfterMS  int64  `json:"result_consumed_after_ms"`
	Database               string `json:"database,omitempty"`
}

// ChangesSchema reports whether the write may have altered labels,
// relationship types, property keys, indexes or constraints. Removals count:
// db.labels() and db.relationshipTypes() list only tokens still in use.
func (s *WriteSummary) ChangesSchema() bool {
	return s.ContainsUpdates || s.QueryType == QueryTypeSchemaWrite ||
		s.NodesCreated > 0 || s.NodesDeleted > 0 ||
		s.RelationshipsCreated > 0 || s.RelationshipsDeleted > 0 ||
		s.PropertiesSet > 0 || s.LabelsAdded > 0 || s.LabelsRemoved > 0 ||
		s.IndexesAdded > 0 || s.IndexesRemoved > 0 ||
		s.ConstraintsAdded > 0 || s.ConstraintsRemoved > 0
}

// QueryResult is the shape returned by RunQuery.
type QueryResult struct {
	Type       string        `json:"type"`
	Records    []Record      `json:"records,omitempty"`
	Count      int           `json:"count"`
	Statistics *WriteSummary `json:"statistics,omitempty"`
}
