package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

func TestUserContextMiddlewareParsesHeader(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := usercontext.GetUserContext(c)
		return c.JSON(ctx)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextMiddlewareRejectsGarbageHeader(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, raw := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-User-ID", raw)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "header %q", raw)
	}
}

func TestRequireUser(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Get("/", RequireUser, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": usercontext.GetUserID(c)})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "7")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminKeyMiddleware(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "sekrit")

	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Get("/admin", AdminKeyMiddleware(), func(c *fiber.Ctx) error {
		if !usercontext.IsAdmin(c) {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	// missing key
	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// wrong key
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// correct key via header
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-Admin-Key", "sekrit")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// correct key via bearer token
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminKeyMiddlewareDisabledWithoutConfig(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "")

	app := fiber.New()
	app.Get("/admin", AdminKeyMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-Admin-Key", "anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
