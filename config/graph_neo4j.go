package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"graph_server/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

// URI schemes accepted by the driver. The "+s" variants use TLS.
const (
	SchemeBolt        = "bolt"
	SchemeBoltSecure  = "bolt+s"
	SchemeNeo4j       = "neo4j"
	SchemeNeo4jSecure = "neo4j+s"

	secureSuffix = "+s"
)

const (
	defaultHost                  = "localhost"
	defaultBoltPort              = 7687
	defaultHTTPPort              = 7474
	defaultDatabase              = "neo4j"
	defaultScheme                = SchemeBolt
	defaultMaxConnectionLifetime = 300 * time.Second
	defaultMaxConnectionPoolSize = 100
	defaultConnectionTimeout     = 30 * time.Second
)

// GraphConfig holds Neo4j connection parameters. It is built once by
// NewGraphConfig and must not be mutated afterwards.
type GraphConfig struct {
	Host                  string        `validate:"required"`
	Port                  int           `validate:"min=1,max=65535"`
	HTTPPort              int           `validate:"min=1,max=65535"`
	Username              string
	Password              string
	Database              string        `validate:"required"`
	URIScheme             string        `validate:"oneof=bolt bolt+s neo4j neo4j+s"`
	Encrypted             bool
	MaxConnectionLifetime time.Duration
	MaxConnectionPoolSize int           `validate:"min=1"`
	ConnectionTimeout     time.Duration
	IncludeMetadata       bool
}

// Option overrides a single field before the environment is consulted.
type Option func(*graphOverrides)

type graphOverrides struct {
	lookup func(string) string

	host, username, password, database, scheme *string
	port, httpPort, poolSize                   *int
	encrypted, includeMetadata                 *bool
	lifetime, timeout                          *time.Duration
}

func WithHost(host string) Option         { return func(o *graphOverrides) { o.host = &host } }
func WithPort(port int) Option            { return func(o *graphOverrides) { o.port = &port } }
func WithHTTPPort(port int) Option        { return func(o *graphOverrides) { o.httpPort = &port } }
func WithUsername(username string) Option { return func(o *graphOverrides) { o.username = &username } }
func WithPassword(password string) Option { return func(o *graphOverrides) { o.password = &password } }
func WithDatabase(database string) Option { return func(o *graphOverrides) { o.database = &database } }
func WithURIScheme(scheme string) Option  { return func(o *graphOverrides) { o.scheme = &scheme } }
func WithEncrypted(encrypted bool) Option { return func(o *graphOverrides) { o.encrypted = &encrypted } }
func WithMaxConnectionPoolSize(n int) Option {
	return func(o *graphOverrides) { o.poolSize = &n }
}
func WithMaxConnectionLifetime(d time.Duration) Option {
	return func(o *graphOverrides) { o.lifetime = &d }
}
func WithConnectionTimeout(d time.Duration) Option {
	return func(o *graphOverrides) { o.timeout = &d }
}
func WithIncludeMetadata(include bool) Option {
	return func(o *graphOverrides) { o.includeMetadata = &include }
}

// WithEnv replaces os.Getenv as the environment source.
func WithEnv(lookup func(string) string) Option {
	return func(o *graphOverrides) { o.lookup = lookup }
}

var validate = validator.New()

// NewGraphConfig resolves every field from an override, then the NEO4J_*
// environment, then the built-in default, and validates the result.
func NewGraphConfig(opts ...Option) (*GraphConfig, error) {
	o := &graphOverrides{lookup: os.Getenv}
	for _, opt := range opts {
		opt(o)
	}
	env := envSource(o.lookup)

	port, err := pickInt(o.port, env, "NEO4J_PORT", defaultBoltPort)
	if err != nil {
		return nil, err
	}
	httpPort, err := pickInt(o.httpPort, env, "NEO4J_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, err
	}

	cfg := &GraphConfig{
		Host:                  pickString(o.host, env.str("NEO4J_HOST", defaultHost)),
		Port:                  port,
		HTTPPort:              httpPort,
		Username:              pickString(o.username, env.str("NEO4J_USERNAME", "")),
		Password:              pickString(o.password, env.str("NEO4J_PASSWORD", "")),
		Database:              pickString(o.database, env.str("NEO4J_DATABASE", defaultDatabase)),
		URIScheme:             pickString(o.scheme, env.str("NEO4J_URI_SCHEME", defaultScheme)),
		Encrypted:             pickBool(o.encrypted, env.boolean("NEO4J_ENCRYPTED", false)),
		MaxConnectionLifetime: pickDuration(o.lifetime, env.seconds("NEO4J_MAX_CONNECTION_LIFETIME", defaultMaxConnectionLifetime)),
		MaxConnectionPoolSize: pickIntValue(o.poolSize, env.integer("NEO4J_MAX_CONNECTION_POOL_SIZE", defaultMaxConnectionPoolSize)),
		ConnectionTimeout:     pickDuration(o.timeout, env.seconds("NEO4J_CONNECTION_TIMEOUT", defaultConnectionTimeout)),
		IncludeMetadata:       pickBool(o.includeMetadata, env.boolean("NEO4J_INCLUDE_METADATA", false)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks port ranges, the scheme set and pool size.
func (c *GraphConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.InvalidConfig("graph", err.Error())
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "min", "max":
		if fe.Field() == "MaxConnectionPoolSize" {
			reason = fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
		} else {
			reason = fmt.Sprintf("port must be between 1 and 65535, got %v", fe.Value())
		}
	case "oneof":
		reason = fmt.Sprintf("URI scheme must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "required":
		reason = "must not be empty"
	default:
		reason = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return apperr.InvalidConfig(fe.Field(), reason).WithDetail("value", fe.Value())
}

// BoltURI returns the driver connection URI. When encryption is on the
// scheme is upgraded to its "+s" variant; an already secure scheme is kept.
func (c *GraphConfig) BoltURI() string {
	scheme := c.URIScheme
	if c.Encrypted && !strings.HasSuffix(scheme, secureSuffix) {
		scheme += secureSuffix
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// HTTPURI returns the browser URI.
func (c *GraphConfig) HTTPURI() string {
	scheme := "http"
	if c.Encrypted {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.HTTPPort)
}

// AuthEnabled reports whether both credentials are present. Credentials are
// sent only in that case.
func (c *GraphConfig) AuthEnabled() bool {
	return c.Username != "" && c.Password != ""
}

// String hides the password.
func (c *GraphConfig) String() string {
	password := "<nil>"
	if c.Password != "" {
		password = "***"
	}
	return fmt.Sprintf("GraphConfig(host=%q, port=%d, username=%q, password=%s, database=%q, uri_scheme=%q)",
		c.Host, c.Port, c.Username, password, c.Database, c.URIScheme)
}

type envSource func(string) string

func (e envSource) str(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e envSource) integer(key string, def int) int {
	if v := e(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func (e envSource) boolean(key string, def bool) bool {
	if v := e(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func (e envSource) seconds(key string, def time.Duration) time.Duration {
	if v := e(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return time.Duration(f * float64(time.Second))
		}
	}
	return def
}

func pickString(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func pickBool(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

func pickDuration(override *time.Duration, fallback time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	return fallback
}

func pickIntValue(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

// pickInt is used for ports, where a malformed environment value is a
// configuration error rather than a silent fallback.
func pickInt(override *int, env envSource, key string, def int) (int, error) {
	if override != nil {
		return *override, nil
	}
	v := strings.TrimSpace(env(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.InvalidConfig(key, fmt.Sprintf("not an integer: %q", v)).WithError(err)
	}
	return n, nil
}
