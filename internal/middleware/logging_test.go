package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithUserID(ctx, 42)
	ctx = context.WithValue(ctx, TraceIDKey, "trace-1")

	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "user_id=42")
	assert.Contains(t, out, "trace_id=trace-1")
	assert.Contains(t, out, "component=test")
}

func TestContextMiddleware_PropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-9")
		c.Locals("userID", uint(5))
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRID string
	var gotUID uint
	app.Get("/", func(c *fiber.Ctx) error {
		gotRID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotUID, _ = c.UserContext().Value(UserIDKey).(uint)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "rid-9", gotRID)
	assert.Equal(t, uint(5), gotUID)
}

func TestMetricsMiddleware_SkipsStaticAndScrape(t *testing.T) {
	p := InitMetrics("warbler-test")
	assert.Same(t, p, InitMetrics("warbler-test"))

	app := fiber.New()
	app.Use(MetricsMiddleware(p))
	app.Get("/static/app.css", func(c *fiber.Ctx) error { return c.SendString("css") })
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("home") })

	for _, path := range []string{"/static/app.css", "/"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestConfigureLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	tests := []struct {
		env  string
		want string
	}{
		{"production", `"msg":"ready"`},
		{"development", "msg=ready"},
		{"", "msg=ready"},
	}

	for _, tt := range tests {
		t.Run("env="+tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			ConfigureLogger(&buf, tt.env)
			Logger.InfoContext(WithUserID(context.Background(), 3), "ready")
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "user_id")
		})
	}
}
