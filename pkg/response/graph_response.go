// Package response provides the API success envelope.
package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Response is the standard API response structure.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Meta      *Meta  `json:"meta,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Meta describes a row set.
type Meta struct {
	Count      int     `json:"count"`
	DurationMS float64 `json:"duration_ms"`
	Database   string  `json:"database,omitempty"`
}

// OK returns a successful response.
func OK(c *fiber.Ctx, data any) error {
	return c.JSON(envelope(c, data, nil))
}

// OKWithMeta returns a successful response with metadata.
func OKWithMeta(c *fiber.Ctx, data any, meta *Meta) error {
	return c.JSON(envelope(c, data, meta))
}

// MetaSince builds Meta for count rows produced since start.
func MetaSince(count int, database string, start time.Time) *Meta {
	return &Meta{
		Count:      count,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		Database:   database,
	}
}

func envelope(c *fiber.Ctx, data any, meta *Meta) Response {
	requestID, _ := c.Locals("request_id").(string)
	return Response{
		Success:   true,
		Data:      data,
		Meta:      meta,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
