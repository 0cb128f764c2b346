package middleware

import (
	"crypto/subtle"

	"staysync-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const adminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards the sync-ops routes. When no key is configured the
// routes are closed, not open.
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return response.Unauthorized(c, "Admin API key not configured")
		}
		got := c.Get(adminKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return response.Unauthorized(c, "Invalid admin API key")
		}
		return c.Next()
	}
}
