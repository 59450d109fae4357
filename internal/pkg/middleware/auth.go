package middleware

import (
	"github.com/gofiber/fiber/v2"

	icuser "github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

// RequireUser ensures the request carries an authenticated user and
// returns JSON 401 otherwise.
func RequireUser(c *fiber.Ctx) error {
	v := c.Locals(icuser.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing X-User-ID header",
		})
	}
	return c.Next()
}

// RequireAdmin ensures the request carries a valid admin key and
// returns JSON 401 otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if isAdmin, ok := c.Locals(icuser.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing or invalid admin key",
		})
	}
	return c.Next()
}
