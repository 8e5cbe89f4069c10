package graph

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"graph_server/core/domain"
	"graph_server/pkg/apperr"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURI = "bolt://localhost:7687"

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthorized",
			err:  &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"},
			want: apperr.ErrAuthenticationFailed,
		},
		{
			name: "wrapped unauthorized",
			err:  fmt.Errorf("verify: %w", &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized"}),
			want: apperr.ErrAuthenticationFailed,
		},
		{
			name: "connectivity",
			err:  &neo4j.ConnectivityError{Inner: errors.New("connection refused")},
			want: apperr.ErrServiceUnavailable,
		},
		{
			name: "other server error",
			err:  &neo4j.Neo4jError{Code: "Neo.ClientError.Database.DatabaseNotFound"},
			want: apperr.ErrConnectionFailure,
		},
		{
			name: "malformed uri",
			err:  errors.New("unsupported URI scheme: ftp"),
			want: apperr.ErrConnectionFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOpenError(testURI, tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyRunError(t *testing.T) {
	syntax := &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "Invalid input"}
	assert.Same(t, syntax, classifyRunError(testURI, syntax), "server errors pass through")

	assert.ErrorIs(t, classifyRunError(testURI, gobreaker.ErrOpenState), apperr.ErrServiceUnavailable)
	assert.ErrorIs(t, classifyRunError(testURI, gobreaker.ErrTooManyRequests), apperr.ErrServiceUnavailable)
	assert.ErrorIs(t, classifyRunError(testURI, &neo4j.ConnectivityError{Inner: errors.New("reset")}), apperr.ErrServiceUnavailable)
}

func TestBreaker_TripsOnConnectivityOnly(t *testing.T) {
	cb := newBreaker(testURI, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, zerolog.Nop())
	run := func(err error) error {
		_, got := cb.Execute(func() (interface{}, error) { return nil, err })
		return got
	}

	syntax := &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError"}
	for i := 0; i < 5; i++ {
		require.Error(t, run(syntax))
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	down := &neo4j.ConnectivityError{Inner: errors.New("connection refused")}
	require.Error(t, run(down))
	require.Error(t, run(down))
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.ErrorIs(t, run(nil), gobreaker.ErrOpenState)
}

func TestNewDriverFactory_Defaults(t *testing.T) {
	f := NewDriverFactory(BreakerConfig{}, zerolog.Nop())
	assert.Equal(t, uint32(5), f.breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, f.breaker.OpenTimeout)
}

type fakeCounters struct {
	neo4j.Counters
	nodesCreated, propertiesSet, labelsAdded int
}

func (c fakeCounters) NodesCreated() int         { return c.nodesCreated }
func (c fakeCounters) NodesDeleted() int         { return 0 }
func (c fakeCounters) RelationshipsCreated() int { return 0 }
func (c fakeCounters) RelationshipsDeleted() int { return 0 }
func (c fakeCounters) PropertiesSet() int        { return c.propertiesSet }
func (c fakeCounters) LabelsAdded() int          { return c.labelsAdded }
func (c fakeCounters) LabelsRemoved() int        { return 0 }
func (c fakeCounters) IndexesAdded() int         { return 0 }
func (c fakeCounters) IndexesRemoved() int       { return 0 }
func (c fakeCounters) ConstraintsAdded() int     { return 0 }
func (c fakeCounters) ConstraintsRemoved() int   { return 0 }
func (c fakeCounters) ContainsUpdates() bool     { return c.nodesCreated+c.propertiesSet+c.labelsAdded > 0 }

type fakeSummary struct {
	counters  fakeCounters
	stmt      neo4j.StatementType
	available time.Duration
	consumed  time.Duration
}

func (s fakeSummary) Counters() neo4j.Counters             { return s.counters }
func (s fakeSummary) StatementType() neo4j.StatementType   { return s.stmt }
func (s fakeSummary) ResultAvailableAfter() time.Duration { return s.available }
func (s fakeSummary) ResultConsumedAfter() time.Duration  { return s.consumed }

func TestToWriteSummary(t *testing.T) {
	got := toWriteSummary(fakeSummary{
		counters:  fakeCounters{nodesCreated: 1, propertiesSet: 2, labelsAdded: 1},
		stmt:      neo4j.StatementTypeWriteOnly,
		available: 3 * time.Millisecond,
		consumed:  7 * time.Millisecond,
	})

	assert.Equal(t, &domain.WriteSummary{
		NodesCreated:           1,
		PropertiesSet:          2,
		LabelsAdded:            1,
		ContainsUpdates:        true,
		QueryType:              domain.QueryTypeWriteOnly,
		ResultAvailableAfterMS: 3,
		ResultConsumedAfterMS:  7,
	}, got)
}

func TestQueryType(t *testing.T) {
	assert.Equal(t, "r", queryType(neo4j.StatementTypeReadOnly))
	assert.Equal(t, "rw", queryType(neo4j.StatementTypeReadWrite))
	assert.Equal(t, "w", queryType(neo4j.StatementTypeWriteOnly))
	assert.Equal(t, "s", queryType(neo4j.StatementTypeSchemaWrite))
	assert.Equal(t, "", queryType(neo4j.StatementTypeUnknown))
}
