package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORS allows browser requests from the ops dashboard: any origin ending with
// AllowedSuffix, plus localhost during development. Requests with no Origin
// header (curl, server-to-server) pass through untouched.
func CORS(allowedSuffix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			return c.Next()
		}

		allowed := strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
		if allowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(allowedSuffix)) {
			allowed = true
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error": fiber.Map{
					"message":    "Not allowed by CORS",
					"statusCode": fiber.StatusForbidden,
					"details":    fiber.Map{},
				},
			})
		}

		c.Set("Access-Control-Allow-Origin", origin)
		c.Set("Access-Control-Allow-Credentials", "true")
		c.Set("Access-Control-Allow-Headers", "Content-Type, "+adminKeyHeader)
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
