package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows browser clients from the given origins. Preflight requests are
// answered with 204 before reaching any route.
func CORS(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodHead, fiber.MethodPost, fiber.MethodOptions}, ","),
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin,
			fiber.HeaderContentType,
			fiber.HeaderAccept,
			fiber.HeaderRange,
			RequestIDHeader,
		}, ","),
		ExposeHeaders: strings.Join([]string{
			fiber.HeaderAcceptRanges,
			fiber.HeaderContentRange,
			fiber.HeaderContentLength,
			fiber.HeaderContentDisposition,
			RequestIDHeader,
		}, ","),
	})
}
