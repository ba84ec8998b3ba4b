package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware) {
	t.Helper()
	// Fresh registry per test avoids duplicate registration.
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	if err != nil {
		t.Fatalf("failed to create middleware: %v", err)
	}

	app := fiber.New()
	app.Use(promMiddleware.Handler())
	return app, promMiddleware
}

func TestPrometheusMiddleware(t *testing.T) {
	app, promMiddleware := newPromApp(t)

	app.Get("/api/files", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/upload-pc", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/files", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/api/files", "200")); count != 1 {
		t.Errorf("expected count 1, got %f", count)
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/api/upload-pc", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected status 200 for POST, got %d", resp.StatusCode)
	}
	if count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("POST", "/api/upload-pc", "200")); count != 1 {
		t.Errorf("expected count 1 for POST, got %f", count)
	}

	app.Test(httptest.NewRequest("GET", "/error", nil))
	if count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/error", "400")); count != 1 {
		t.Errorf("expected count 1 for error, got %f", count)
	}
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	app, promMiddleware := newPromApp(t)

	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	if n := testutil.CollectAndCount(promMiddleware.requestCount); n != 0 {
		t.Errorf("expected no http_requests_total series, got %d", n)
	}
}

func TestPrometheusMiddleware_PathPattern(t *testing.T) {
	app, promMiddleware := newPromApp(t)

	app.Get("/api/files/:uuid", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/api/files/0b4e7c3a-6a53-4c41-9d0f-6a2d6f1f7d10", nil))

	// Should use the route pattern as label, not the concrete id
	if count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/api/files/:uuid", "200")); count != 1 {
		t.Errorf("expected count 1 for pattern /api/files/:uuid, got %f", count)
	}

	if countDur := testutil.CollectAndCount(promMiddleware.requestDuration); countDur == 0 {
		t.Error("expected histogram metrics to be collected, got 0")
	}
}

func TestPrometheusMiddleware_UnmatchedRoute(t *testing.T) {
	app, promMiddleware := newPromApp(t)

	app.Test(httptest.NewRequest("GET", "/no/such/thing", nil))

	if count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "unmatched", "404")); count != 1 {
		t.Errorf("expected unmatched 404 to be counted once, got %f", count)
	}
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMiddleware(reg); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := NewPrometheusMiddleware(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
