package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"graph_server/pkg/apperr"
	"graph_server/pkg/ratelimit"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(RequestID())
	for _, h := range handlers {
		app.Use(h)
	}
	return app
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"app error keeps cause", apperr.QueryExecution("read", errors.New("Unknown function 'foo'")), 502, apperr.CodeQueryExecution, "Unknown function 'foo'"},
		{"internal cause hidden", apperr.InternalWithError(errors.New("secret detail")), 500, apperr.CodeInternalError, "internal server error"},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "slow down"), 429, "RATE_LIMITED", "slow down"},
		{"plain error", errors.New("disk on fire"), 500, apperr.CodeInternalError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(*fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			out := decodeError(t, resp)
			assert.False(t, out.Success)
			assert.Equal(t, tt.code, out.Error.Code)
			assert.Contains(t, out.Error.Message, tt.message)
			assert.NotEmpty(t, out.RequestID)
			if tt.code == apperr.CodeInternalError {
				assert.NotContains(t, out.Error.Message, "secret detail")
			}
		})
	}
}

func TestRequestID_Propagated(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRecover(t *testing.T) {
	app := newApp(Recover())
	app.Get("/", func(*fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apperr.CodeInternalError, decodeError(t, resp).Error.Code)
}

func TestRequireJSON(t *testing.T) {
	app := newApp(RequireJSON())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("query=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"RETURN 1"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestMaxBodySize(t *testing.T) {
	app := newApp(MaxBodySize(8))
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, resp).Error.Code)
}

func TestSecurityHeaders(t *testing.T) {
	app := newApp(SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestJWTAuth(t *testing.T) {
	now := time.Now()
	valid := signToken(t, jwt.MapClaims{"sub": "analyst", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()})
	expired := signToken(t, jwt.MapClaims{"sub": "analyst", "exp": now.Add(-time.Hour).Unix()})
	noSubject := signToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, fiber.StatusUnauthorized},
		{"no subject", "Bearer " + noSubject, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(JWTAuth(testSecret, nil))
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendString(c.Locals("subject").(string))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "analyst", string(body))
			} else {
				assert.Equal(t, apperr.CodeUnauthorized, decodeError(t, resp).Error.Code)
			}
		})
	}
}

func TestJWTAuth_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "analyst"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	app := newApp(JWTAuth(testSecret, nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTokenRevocations_Nil(t *testing.T) {
	r := NewTokenRevocations(nil)
	assert.Nil(t, r)
	assert.False(t, r.IsRevoked(context.Background(), "jti-1"))
	assert.NoError(t, r.Revoke(context.Background(), "jti-1", time.Minute))
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	app := newApp(RateLimit(ratelimit.NewSlidingWindowLimiter(nil, 1, 0)))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
