package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogPretty   bool

	// Neo4j
	Graph *GraphConfig

	// Redis (schema cache)
	RedisURL       string
	SchemaCacheTTL time.Duration

	// API auth (HS256). Empty disables auth.
	JWTSecret string

	// Offload pool size; 0 means Graph.MaxConnectionPoolSize
	MaxConcurrentQueries int

	// Per-request deadline for HTTP query endpoints
	QueryTimeout time.Duration

	// Per-client query rate (requests/second, 0 disables); needs Redis
	QueryRateLimit int
	QueryRateBurst int

	// Circuit breaker around driver calls
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// CORS
	AllowedOrigins []string
}

func Load(opts ...Option) (*Config, error) {
	graph, err := NewGraphConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvBool("LOG_PRETTY", false),

		Graph: graph,

		RedisURL:       getEnv("REDIS_URL", ""),
		SchemaCacheTTL: time.Duration(getEnvInt("SCHEMA_CACHE_TTL_SEC", 300)) * time.Second,

		JWTSecret: getEnv("API_JWT_SECRET", ""),

		MaxConcurrentQueries: getEnvInt("MAX_CONCURRENT_QUERIES", 0),
		QueryTimeout:         time.Duration(getEnvInt("QUERY_TIMEOUT_SEC", 60)) * time.Second,
		QueryRateLimit:       getEnvInt("QUERY_RATE_LIMIT", 0),
		QueryRateBurst:       getEnvInt("QUERY_RATE_BURST", 10),

		BreakerMaxFailures: uint32(getEnvInt("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: time.Duration(getEnvInt("BREAKER_OPEN_TIMEOUT_SEC", 30)) * time.Second,

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),
	}, nil
}

var envOnce sync.Once

// LoadEnvFile loads a .env file into the process environment, at most once.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	var err error
	envOnce.Do(func() {
		err = godotenv.Load(paths...)
		if os.IsNotExist(err) {
			err = nil
		}
	})
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// QueryConcurrency returns the offload pool size.
func (c *Config) QueryConcurrency() int {
	if c.MaxConcurrentQueries > 0 {
		return c.MaxConcurrentQueries
	}
	return c.Graph.MaxConnectionPoolSize
}
