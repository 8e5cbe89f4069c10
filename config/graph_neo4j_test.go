package config

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"graph_server/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyEnv(string) string { return "" }

func mapEnv(m map[string]string) Option {
	return WithEnv(func(k string) string { return m[k] })
}

func TestNewGraphConfig_Defaults(t *testing.T) {
	cfg, err := NewGraphConfig(WithEnv(emptyEnv))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 7687, cfg.Port)
	assert.Equal(t, 7474, cfg.HTTPPort)
	assert.Equal(t, "neo4j", cfg.Database)
	assert.Equal(t, SchemeBolt, cfg.URIScheme)
	assert.False(t, cfg.Encrypted)
	assert.Equal(t, 300*time.Second, cfg.MaxConnectionLifetime)
	assert.Equal(t, 100, cfg.MaxConnectionPoolSize)
	assert.Equal(t, 30*time.Second, cfg.ConnectionTimeout)
	assert.False(t, cfg.AuthEnabled())
}

func TestNewGraphConfig_Precedence(t *testing.T) {
	env := mapEnv(map[string]string{
		"NEO4J_HOST":               "graph.internal",
		"NEO4J_PORT":               "7688",
		"NEO4J_DATABASE":           "movies",
		"NEO4J_ENCRYPTED":          "true",
		"NEO4J_CONNECTION_TIMEOUT": "2.5",
		"NEO4J_USERNAME":           "neo4j",
		"NEO4J_PASSWORD":           "secret",
	})

	cfg, err := NewGraphConfig(env, WithHost("override.local"))
	require.NoError(t, err)

	assert.Equal(t, "override.local", cfg.Host, "override beats environment")
	assert.Equal(t, 7688, cfg.Port, "environment beats default")
	assert.Equal(t, "movies", cfg.Database)
	assert.True(t, cfg.Encrypted)
	assert.Equal(t, 2500*time.Millisecond, cfg.ConnectionTimeout)
	assert.True(t, cfg.AuthEnabled())
}

func TestNewGraphConfig_PortRange(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{7687, false},
		{65535, false},
		{65536, true},
		{100000, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("bolt port %d", tt.port), func(t *testing.T) {
			_, err := NewGraphConfig(WithEnv(emptyEnv), WithPort(tt.port))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
		t.Run(fmt.Sprintf("http port %d", tt.port), func(t *testing.T) {
			_, err := NewGraphConfig(WithEnv(emptyEnv), WithHTTPPort(tt.port))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewGraphConfig_MalformedPortEnv(t *testing.T) {
	_, err := NewGraphConfig(mapEnv(map[string]string{"NEO4J_PORT": "bolt"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
	assert.Equal(t, "NEO4J_PORT", apperr.AsAppError(err).Details["field"])
}

func TestNewGraphConfig_Scheme(t *testing.T) {
	for _, scheme := range []string{"bolt", "bolt+s", "neo4j", "neo4j+s"} {
		_, err := NewGraphConfig(WithEnv(emptyEnv), WithURIScheme(scheme))
		assert.NoError(t, err, scheme)
	}
	for _, scheme := range []string{"http", "bolt+ssc", "BOLT", ""} {
		_, err := NewGraphConfig(WithEnv(emptyEnv), WithURIScheme(scheme))
		assert.ErrorIs(t, err, apperr.ErrInvalidConfig, scheme)
	}
}

func TestGraphConfig_BoltURI(t *testing.T) {
	tests := []struct {
		name      string
		scheme    string
		encrypted bool
		want      string
	}{
		{"plain bolt", "bolt", false, "bolt://localhost:7687"},
		{"encrypted bolt", "bolt", true, "bolt+s://localhost:7687"},
		{"already secure", "bolt+s", true, "bolt+s://localhost:7687"},
		{"secure without flag", "neo4j+s", false, "neo4j+s://localhost:7687"},
		{"encrypted routing", "neo4j", true, "neo4j+s://localhost:7687"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewGraphConfig(WithEnv(emptyEnv),
				WithHost("localhost"), WithPort(7687),
				WithURIScheme(tt.scheme), WithEncrypted(tt.encrypted))
			require.NoError(t, err)

			uri := cfg.BoltURI()
			assert.Equal(t, tt.want, uri)
			assert.Equal(t, uri, cfg.BoltURI(), "derivation is stable")
			if tt.encrypted {
				assert.Equal(t, 1, strings.Count(uri, "+s"))
			}
		})
	}
}

func TestGraphConfig_HTTPURI(t *testing.T) {
	cfg, err := NewGraphConfig(WithEnv(emptyEnv), WithHost("db"), WithHTTPPort(7473))
	require.NoError(t, err)
	assert.Equal(t, "http://db:7473", cfg.HTTPURI())

	cfg, err = NewGraphConfig(WithEnv(emptyEnv), WithHost("db"), WithHTTPPort(7473), WithEncrypted(true))
	require.NoError(t, err)
	assert.Equal(t, "https://db:7473", cfg.HTTPURI())
}

func TestGraphConfig_AuthRequiresBothCredentials(t *testing.T) {
	cfg, err := NewGraphConfig(WithEnv(emptyEnv), WithUsername("neo4j"))
	require.NoError(t, err)
	assert.False(t, cfg.AuthEnabled())

	cfg, err = NewGraphConfig(WithEnv(emptyEnv), WithPassword("secret"))
	require.NoError(t, err)
	assert.False(t, cfg.AuthEnabled())
}

func TestGraphConfig_StringHidesPassword(t *testing.T) {
	cfg, err := NewGraphConfig(WithEnv(emptyEnv), WithUsername("neo4j"), WithPassword("hunter2"))
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "***")
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CONCURRENT_QUERIES", "")

	cfg, err := Load(WithEnv(emptyEnv), WithMaxConnectionPoolSize(12))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 12, cfg.QueryConcurrency())
}
