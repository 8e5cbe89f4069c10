package http

import (
	"context"
	"time"

	"graph_server/core/port/in"
	"graph_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks an optional dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	svc        in.GraphService
	cache      Pinger
	metrics    *metrics.QueryMetrics
	cacheStats func() any
}

// NewHealthHandler creates the handler; cache and m may be nil.
func NewHealthHandler(svc in.GraphService, cache Pinger, m *metrics.QueryMetrics) *HealthHandler {
	return &HealthHandler{svc: svc, cache: cache, metrics: m}
}

// WithCacheStats adds the result of fn to /stats under "schema_cache".
func (h *HealthHandler) WithCacheStats(fn func() any) *HealthHandler {
	h.cacheStats = fn
	return h
}

func (h *HealthHandler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

// RegisterStats mounts /stats under router.
func (h *HealthHandler) RegisterStats(router fiber.Router) {
	router.Get("/stats", h.Stats)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready probes Neo4j and, when configured, the schema cache.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	status := h.svc.TestConnection(ctx)
	if status.Connected {
		checks["neo4j"] = "healthy"
	} else {
		checks["neo4j"] = "unhealthy: " + status.Error
		allHealthy = false
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["schema_cache"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["schema_cache"] = "healthy"
		}
	} else {
		checks["schema_cache"] = "not configured"
	}

	state := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		state = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats reports per-operation latency in milliseconds.
func (h *HealthHandler) Stats(c *fiber.Ctx) error {
	ops := make(map[string]any)
	var inFlight int64
	if h.metrics != nil {
		for name, s := range h.metrics.AllStats() {
			ops[name] = s.ToMap()
		}
		inFlight = h.metrics.InFlight()
	}

	body := fiber.Map{
		"operations": ops,
		"in_flight":  inFlight,
	}
	if h.cacheStats != nil {
		body["schema_cache"] = h.cacheStats()
	}
	return c.JSON(body)
}
