package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"Movie", "Person"}, Dedupe([]string{"Person", "Movie", "Person", ""}))
	assert.Equal(t, []string{}, Dedupe(nil))
}

func TestSchemaSnapshot_Text(t *testing.T) {
	s := &SchemaSnapshot{
		Database:          "neo4j",
		Labels:            []string{"Person", "Movie"},
		RelationshipTypes: []string{"ACTED_IN"},
		Constraints:       []Record{{"name": "person_name"}},
	}

	text := s.Text()
	assert.Contains(t, text, "Database: neo4j")
	assert.Contains(t, text, "Node Labels (2):\n  - Movie\n  - Person\n")
	assert.Contains(t, text, "Relationship Types (1):\n  - ACTED_IN\n")
	assert.Contains(t, text, "Constraints: 1")
	assert.Equal(t, []string{"Person", "Movie"}, s.Labels, "rendering does not reorder the snapshot")
}

func TestWriteSummary_ChangesSchema(t *testing.T) {
	assert.False(t, (&WriteSummary{}).ChangesSchema())
	assert.False(t, (&WriteSummary{QueryType: QueryTypeReadWrite}).ChangesSchema())
	assert.True(t, (&WriteSummary{NodesDeleted: 3}).ChangesSchema())
	assert.True(t, (&WriteSummary{LabelsRemoved: 1}).ChangesSchema())
	assert.True(t, (&WriteSummary{RelationshipsDeleted: 1}).ChangesSchema())
	assert.True(t, (&WriteSummary{ContainsUpdates: true}).ChangesSchema())
	assert.True(t, (&WriteSummary{NodesCreated: 1}).ChangesSchema())
	assert.True(t, (&WriteSummary{QueryType: QueryTypeSchemaWrite}).ChangesSchema())
}
