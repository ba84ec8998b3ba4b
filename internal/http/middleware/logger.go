package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger is a middleware that logs each HTTP request as one structured line.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - trace_id when the request is traced
func Logger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The error handler has not run yet, so resolve the status the same way it will.
		status := c.Response().StatusCode()
		if err != nil {
			status = statusFromError(err)
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			ev.Str("trace_id", sc.TraceID().String())
		}
		ev.Msg("http_request")

		return err
	}
}
