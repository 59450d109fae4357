package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aurumpay/goldlock/app/controllers"
	"github.com/aurumpay/goldlock/internal/pkg/middleware"
	"github.com/aurumpay/goldlock/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Caller context comes from the gateway headers on every request
	app.Use(middleware.UserContextMiddleware)

	api := app.Group("/api", ratelimit.New(120, time.Minute))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"service": "goldlock",
			"status":  "ok",
		})
	})

	v1 := api.Group("/v1")

	// User-facing routes
	v1.Get("/templates", middleware.RequireUser, controllers.HandleListActiveTemplates)
	v1.Get("/wallet", middleware.RequireUser, controllers.HandleGetWallet)

	plans := v1.Group("/plans", middleware.RequireUser)
	plans.Post("/", controllers.HandleCreatePlan)
	plans.Get("/", controllers.HandleListPlans)
	plans.Get("/:id", controllers.HandleGetPlan)
	plans.Post("/:id/activate", controllers.HandleActivatePlan)
	plans.Post("/:id/terminate", controllers.HandleRequestTermination)

	// Admin routes, authenticated by the shared admin key
	admin := v1.Group("/admin", middleware.AdminKeyMiddleware())
	admin.Post("/plans/:id/termination", controllers.HandleAdminResolveTermination)
	admin.Get("/plans", controllers.HandleAdminListPlans)
	admin.Post("/sweep", controllers.HandleAdminSweep)
	admin.Get("/audit", controllers.HandleAdminAudit)
	admin.Get("/wallets/:user_id", controllers.HandleAdminGetWallet)

	admin.Post("/templates", controllers.HandleAdminCreateTemplate)
	admin.Get("/templates", controllers.HandleAdminListTemplates)
	admin.Get("/templates/:id", controllers.HandleAdminGetTemplate)
	admin.Put("/templates/:id", controllers.HandleAdminUpdateTemplate)
	admin.Post("/templates/:id/variants", controllers.HandleAdminAddVariant)
	admin.Put("/templates/variants/:variant_id", controllers.HandleAdminUpdateVariant)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
