package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signdocs/internal/model"
)

func bearerToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen, _ = c.Locals(RequestIDLocalKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("generates an id when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, _ := app.Test(req)

		got := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, got)
		assert.Equal(t, got, seen)
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
	})

	t.Run("propagates an incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-supplied-id")
		resp, _ := app.Test(req)

		assert.Equal(t, "client-supplied-id", resp.Header.Get(RequestIDHeader))
		assert.Equal(t, "client-supplied-id", seen)
	})
}

func TestLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer

	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Get("/documents", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	_, err := app.Test(req)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/documents", line["path"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Contains(t, line, "ts")
	assert.Contains(t, line, "latency")
}

func TestIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(Identity())

	var seen model.Identity
	app.Get("/", func(c *fiber.Ctx) error {
		seen, _ = IdentityFromCtx(c)
		return c.SendStatus(fiber.StatusOK)
	})

	get := func(authorization string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set(fiber.HeaderAuthorization, authorization)
		}
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("extracts the caller tuple from the claims", func(t *testing.T) {
		resp := get(bearerToken(t, jwt.MapClaims{
			"sub":        "user-1",
			"role":       "sender",
			"company_id": "company-1",
		}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, model.Identity{UserID: "user-1", Role: model.RoleSender, CompanyID: "company-1"}, seen)
	})

	t.Run("missing header", func(t *testing.T) {
		resp := get("")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		resp := get("Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		resp := get("Bearer not.a.jwt")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing subject", func(t *testing.T) {
		resp := get(bearerToken(t, jwt.MapClaims{"role": "sender"}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown role", func(t *testing.T) {
		resp := get(bearerToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "auditor",
		}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
