package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the caller context for every request.
// The upstream gateway authenticates the user and injects X-User-ID;
// this service trusts the header and never sees credentials.
func UserContextMiddleware(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get("X-User-ID"))
	if raw == "" {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "Invalid X-User-ID header",
		})
	}

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:     uint(userID),
		IsLoggedIn: true,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, uint(userID))
	c.Locals(usercontext.KeyIsAdmin, false)

	return c.Next()
}
