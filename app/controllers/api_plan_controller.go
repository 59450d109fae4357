package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/aurumpay/goldlock/app/repository"
	"github.com/aurumpay/goldlock/internal/pkg/bnsl"
	"github.com/aurumpay/goldlock/internal/pkg/metrics/counter"
	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

var planEngine *bnsl.Engine

// InitializePlanController wires the plan engine into the API handlers.
func InitializePlanController(engine *bnsl.Engine) {
	planEngine = engine
}

// CreatePlanRequest is the user-facing plan creation payload. Decimal
// fields travel as strings to avoid float truncation.
type CreatePlanRequest struct {
	TemplateID      uint   `json:"template_id" validate:"required,min=1"`
	TenorMonths     int    `json:"tenor_months" validate:"required,min=1,max=120"`
	GoldGrams       string `json:"gold_grams" validate:"required"`
	MarginAnnualPct string `json:"margin_annual_percent,omitempty"`
}

// HandleCreatePlan records a draft plan for the authenticated user.
func HandleCreatePlan(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	var req CreatePlanRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	grams, err := decimal.NewFromString(req.GoldGrams)
	if err != nil || !grams.IsPositive() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "gold_grams must be a positive decimal string"})
	}

	input := bnsl.CreatePlanInput{
		TemplateID:  req.TemplateID,
		TenorMonths: req.TenorMonths,
		GoldGrams:   grams,
		UserID:      user.UserID,
		Actor:       fmt.Sprintf("user:%d", user.UserID),
	}
	if req.MarginAnnualPct != "" {
		rate, err := decimal.NewFromString(req.MarginAnnualPct)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "margin_annual_percent must be a decimal string"})
		}
		input.MarginAnnualPct = &rate
	}

	plan, err := planEngine.CreatePlan(c.UserContext(), input)
	if err != nil {
		return engineError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleActivatePlan locks the current gold valuation into the draft
// plan, debits the wallet and builds the payout schedule.
func HandleActivatePlan(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	planID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	if denied := requirePlanOwner(c, planID, user.UserID); denied != nil {
		return denied
	}

	plan, err := planEngine.ActivatePlan(c.UserContext(), planID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(plan)
}

// HandleRequestTermination asks for early termination of an active plan.
// The request goes into admin review; balances stay untouched until the
// review resolves.
func HandleRequestTermination(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	planID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	if denied := requirePlanOwner(c, planID, user.UserID); denied != nil {
		return denied
	}

	plan, err := planEngine.RequestEarlyTermination(c.UserContext(), planID, user.UserID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(plan)
}

// HandleGetPlan returns one plan with its payout schedule.
func HandleGetPlan(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	planID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(planID)
	if err != nil || plan == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	}
	if plan.UserID != user.UserID && !user.IsAdmin {
		// Do not leak existence
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	}

	payouts, err := repo.ListPayouts(planID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payouts"})
	}
	plan.Payouts = payouts

	if err := counter.AddPlanView(planID); err != nil {
		log.Debugf("failed to count plan view %d: %v", planID, err)
	}

	return c.JSON(plan)
}

// HandleListPlans returns all plans of the authenticated user.
func HandleListPlans(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.ListByUser(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// requirePlanOwner rejects requests against plans the user does not own.
// A non-nil return is a ready-to-send response.
func requirePlanOwner(c *fiber.Ctx, planID, userID uint) error {
	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(planID)
	if err != nil || plan == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	}
	if plan.UserID != userID {
		// Do not leak existence
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	}
	return nil
}
