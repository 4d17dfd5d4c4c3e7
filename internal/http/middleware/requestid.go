package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID across service boundaries.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the context-locals key holding the request ID.
	RequestIDLocalKey = "request_id"
)

// RequestID guarantees every request a correlation ID: an incoming
// X-Request-ID is propagated as-is, otherwise a fresh UUID is minted. The ID
// is stored in context locals for the logger and response envelopes, and
// echoed on the response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
