package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aurumpay/goldlock/app/repository"
	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

// HandleGetWallet returns the authenticated user's wallet balances.
func HandleGetWallet(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetWalletRepository()
	account, err := repo.GetOrCreateByUser(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load wallet"})
	}
	return c.JSON(account)
}
