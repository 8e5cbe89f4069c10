package http

import (
	"context"
	"time"

	"graph_server/core/domain"
	"graph_server/core/port/in"
	"graph_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GraphHandler exposes the connection manager over HTTP.
type GraphHandler struct {
	svc     in.GraphService
	timeout time.Duration
}

// NewGraphHandler creates the handler. timeout bounds each call; zero means
// no deadline beyond the server's.
func NewGraphHandler(svc in.GraphService, timeout time.Duration) *GraphHandler {
	return &GraphHandler{svc: svc, timeout: timeout}
}

func (h *GraphHandler) Register(router fiber.Router) {
	router.Get("/connection", h.Connection)
	router.Get("/help", h.Help)
	router.Get("/schema", h.Schema)

	query := router.Group("/query")
	query.Post("/", h.Run)
	query.Post("/read", h.Read)
	query.Post("/write", h.Write)
}

func (h *GraphHandler) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// Read runs a read-only query.
// POST /api/v1/query/read {query, parameters, database}
func (h *GraphHandler) Read(c *fiber.Ctx) error {
	var req QueryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	start := time.Now()
	records, err := h.svc.ExecuteRead(ctx, req.Query, req.Parameters, req.Database)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, records, response.MetaSince(len(records), req.Database, start))
}

// Write runs a query in a write session and returns its counters.
// POST /api/v1/query/write {query, parameters, database}
func (h *GraphHandler) Write(c *fiber.Ctx) error {
	var req QueryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	summary, err := h.svc.ExecuteWrite(ctx, req.Query, req.Parameters, req.Database)
	if err != nil {
		return err
	}
	return response.OK(c, summary)
}

// Run dispatches on read_only, which defaults to true.
// POST /api/v1/query {query, parameters, database, read_only}
func (h *GraphHandler) Run(c *fiber.Ctx) error {
	var req in.RunQueryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.svc.RunQuery(ctx, &req)
	if err != nil {
		return err
	}
	return response.OK(c, result)
}

// Schema returns the schema snapshot, or plain text with ?format=text.
// GET /api/v1/schema?database=&format=
func (h *GraphHandler) Schema(c *fiber.Ctx) error {
	ctx, cancel := h.context(c)
	defer cancel()

	snapshot, err := h.svc.GetSchema(ctx, c.Query("database"))
	if err != nil {
		return err
	}
	if c.Query("format") == "text" {
		return c.Type("txt").SendString(snapshot.Text())
	}
	return response.OK(c, snapshot)
}

// Connection reports settings and a live probe. Probe failures are part of the
// body, not an error status.
// GET /api/v1/connection
func (h *GraphHandler) Connection(c *fiber.Ctx) error {
	ctx, cancel := h.context(c)
	defer cancel()

	return response.OK(c, h.svc.ConnectionInfo(ctx))
}

// Help returns a Cypher reference as markdown.
// GET /api/v1/help
func (h *GraphHandler) Help(c *fiber.Ctx) error {
	return c.Type("md").SendString(domain.CypherHelp)
}
