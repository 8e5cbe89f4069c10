package middleware

import (
	"math"
	"strconv"

	"graph_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit throttles requests per subject, or per client IP when the request
// is unauthenticated.
func RateLimit(limiter *ratelimit.SlidingWindowLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, _ := c.Locals("subject").(string)
		if key == "" {
			key = "ip:" + c.IP()
		}

		ok, wait := limiter.Allow(c.UserContext(), key)
		if !ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
