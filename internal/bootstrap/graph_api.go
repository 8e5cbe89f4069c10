package bootstrap

import (
	"context"
	"strings"

	"graph_server/adapter/in/http"
	"graph_server/config"
	"graph_server/infra/database"
	"graph_server/infra/middleware"
	"graph_server/pkg/logger"
	"graph_server/pkg/ratelimit"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const maxRequestBody = 1 << 20

// NewAPI builds the HTTP application. A failed initial connect is logged and
// not fatal: /ready reports it and the probe reconnects lazily.
func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	if err := deps.Graph.Connect(ctx); err != nil {
		logger.WithError(err).Warn("Initial Neo4j connection failed, continuing")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             maxRequestBody,
		ServerHeader:          "",
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" || (allowOrigins == "*" && cfg.IsProduction()) {
		allowOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders: "X-Request-ID",
		MaxAge:        86400,
	}))

	health := http.NewHealthHandler(deps.Graph, nil, deps.Metrics)
	if deps.Redis != nil {
		redisClient := deps.Redis
		health = http.NewHealthHandler(deps.Graph, http.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}), deps.Metrics).WithCacheStats(func() any {
			return database.GetRedisStats(redisClient)
		})
	}
	health.Register(app)

	api := app.Group("/api/v1")
	if cfg.JWTSecret != "" {
		var revocations *middleware.TokenRevocations
		if deps.Redis != nil {
			revocations = middleware.NewTokenRevocations(deps.Redis)
		}
		api.Use(middleware.JWTAuth(cfg.JWTSecret, revocations))
	} else {
		logger.Warn("API_JWT_SECRET not set, /api/v1 is unauthenticated")
	}
	api.Use(middleware.RequireJSON())
	api.Use(middleware.MaxBodySize(maxRequestBody))
	if cfg.QueryRateLimit > 0 && deps.Redis != nil {
		limiter := ratelimit.NewSlidingWindowLimiter(deps.Redis, cfg.QueryRateLimit, cfg.QueryRateBurst)
		api.Use("/query", middleware.RateLimit(limiter))
		logger.Info("Query rate limit: %d/s (burst %d)", cfg.QueryRateLimit, cfg.QueryRateBurst)
	}

	health.RegisterStats(api)
	http.NewGraphHandler(deps.Graph, cfg.QueryTimeout).Register(api)

	return app, cleanup, nil
}
