package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"signdocs/internal/http/middleware"
	"signdocs/internal/service"
)

// envelope is the uniform response body: code mirrors the HTTP status,
// message is a safe human-readable summary, data carries the payload when
// there is one.
type envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeData writes the success envelope.
func writeData(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{
		Code:      status,
		Message:   message,
		Data:      data,
		RequestID: requestIDFromCtx(c),
	})
}

// writeError writes the error envelope without leaking internal details.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(envelope{
		Code:      status,
		Message:   message,
		RequestID: requestIDFromCtx(c),
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// NotFound deliberately covers out-of-scope documents as well, so a caller
// can never tell a hidden row from an absent one.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "document not found")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "operation not permitted")
	case errors.Is(err, service.ErrConflict):
		return writeError(c, fiber.StatusConflict, "document id already exists")
	case errors.Is(err, service.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrUpstream):
		return writeError(c, fiber.StatusBadGateway, "upstream store unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "unauthorized")
		case fiber.StatusNotFound:
			return writeError(c, status, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "method not allowed")
		default:
			return writeError(c, status, "internal server error")
		}
	}
}
