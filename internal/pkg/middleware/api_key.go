package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aurumpay/goldlock/internal/pkg/env"
	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

// AdminKeyMiddleware authenticates requests carrying the shared admin
// API key header. The key comes from the ADMIN_API_KEY environment
// variable; an empty key disables all admin routes.
func AdminKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := env.GetEnv("ADMIN_API_KEY", "")
		if expected == "" {
			log.Print("admin key middleware: ADMIN_API_KEY not configured, admin routes disabled")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access disabled"})
		}

		provided := extractAdminKeyFromHeader(c)
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing admin key"})
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid admin key"})
		}

		ctx := usercontext.GetUserContext(c)
		ctx.IsAdmin = true
		c.Locals("USER_CONTEXT", ctx)
		c.Locals(usercontext.KeyIsAdmin, true)

		return c.Next()
	}
}

func extractAdminKeyFromHeader(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.Get("X-Admin-Key"))
	if key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
