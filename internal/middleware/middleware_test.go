package middleware

import (
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"GymFinance/pkg/handlerUtil"
	"GymFinance/pkg/log"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_KeepsValidHeader(t *testing.T) {
	app := fiber.New()
	app.Use(NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(contextPkg.GetRequestID(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "dash-42_a.b")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "dash-42_a.b", resp.Header.Get(RequestIDKey))
	assert.Equal(t, "dash-42_a.b", string(body))
}

func TestRequestID_ReplacesMalformedHeader(t *testing.T) {
	app := fiber.New()
	app.Use(NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, header := range []string{"", "has space", "new\\nline", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(RequestIDKey, header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()

		got := resp.Header.Get(RequestIDKey)
		assert.NotEqual(t, header, got)
		assert.Len(t, got, 26, "a ULID is generated for %q", header)
	}
}

func newRateLimitedApp(m *middleware, user string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != "" {
			c.Locals("user", entity.UserLoginData{ID: user})
		}
		return c.Next()
	})
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRateLimiter_RejectsWithRetryAfter(t *testing.T) {
	m := New(log.NewDiscardLogger(), WithRateLimit(1, 2)).(*middleware)
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	m.rateLimitter.now = func() time.Time { return now }
	app := newRateLimitedApp(m, "coach-1")

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))

	var body handlerUtil.ErrorResponse
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "TOO_MANY_REQUESTS", body.Code)

	now = now.Add(time.Second)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "a token is back after one second")
}

func TestRateLimiter_BucketsPerUser(t *testing.T) {
	m := New(log.NewDiscardLogger(), WithRateLimit(1, 1)).(*middleware)

	for _, user := range []string{"coach-1", "coach-2"} {
		resp, err := newRateLimitedApp(m, user).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, user)
	}

	resp, err := newRateLimitedApp(m, "coach-1").Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_PrunesIdleClients(t *testing.T) {
	limiter := newRateLimiter(1, 1)
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.Zero(t, limiter.take("ip:10.0.0.1"))
	assert.Zero(t, limiter.take("ip:10.0.0.2"))
	assert.Equal(t, 2, limiter.size())

	now = now.Add(defaultLimiterIdle)
	assert.Zero(t, limiter.take("ip:10.0.0.3"))
	assert.Equal(t, 1, limiter.size())
}
