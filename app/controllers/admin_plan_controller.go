package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aurumpay/goldlock/app/repository"
	"github.com/aurumpay/goldlock/internal/pkg/metrics/counter"
	"github.com/aurumpay/goldlock/internal/pkg/usercontext"
)

// ResolveTerminationRequest is the admin decision on a pending early
// termination request.
type ResolveTerminationRequest struct {
	Approve bool   `json:"approve"`
	AdminID uint   `json:"admin_id" validate:"required,min=1"`
	Notes   string `json:"notes,omitempty" validate:"max=500"`
}

// HandleAdminResolveTermination approves or rejects a pending early
// termination request. Approval settles the plan immediately.
func HandleAdminResolveTermination(c *fiber.Ctx) error {
	planID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	var req ResolveTerminationRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	plan, err := planEngine.ResolveEarlyTermination(c.UserContext(), planID, req.Approve, req.AdminID, req.Notes)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(plan)
}

// SweepRequest selects which sweep to run. Type defaults to accrual.
type SweepRequest struct {
	Type string `json:"type,omitempty" validate:"omitempty,oneof=accrual maturity"`
}

// HandleAdminSweep triggers a sweep outside its schedule. Intended for
// operational catch-up after an incident or a clock change.
func HandleAdminSweep(c *fiber.Ctx) error {
	var req SweepRequest
	if len(c.Body()) > 0 {
		if resp := parseBody(c, &req); resp != nil {
			return resp
		}
	}

	sweep := "accrual"
	run := planEngine.RunAccrualSweep
	if req.Type == "maturity" {
		sweep = "maturity"
		run = planEngine.RunMaturitySweep
	}

	res, err := run(c.UserContext(), time.Now())
	if err != nil {
		return engineError(c, err)
	}
	if err := counter.AddSweepResult(sweep, res.Processed, res.Failed, res.Escalated); err != nil {
		log.Debugf("[Admin] Recording %s sweep counters: %v", sweep, err)
	}
	counters, err := counter.SweepCounters()
	if err != nil {
		log.Debugf("[Admin] Reading sweep counters: %v", err)
	}
	return c.JSON(fiber.Map{"result": res, "counters": counters})
}

// HandleAdminAudit lists audit log entries, optionally filtered by plan.
func HandleAdminAudit(c *fiber.Ctx) error {
	var planID *uint
	if raw := c.QueryInt("plan_id"); raw > 0 {
		id := uint(raw)
		planID = &id
	}
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	entries, err := planEngine.ListAuditLog(c.UserContext(), planID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load audit log"})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// HandleAdminListPlans lists plans by status for review screens.
func HandleAdminListPlans(c *fiber.Ctx) error {
	status := c.Query("status")
	if status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "status query parameter required"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.ListByStatus(status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleAdminGetWallet returns a user's wallet balances.
func HandleAdminGetWallet(c *fiber.Ctx) error {
	userID, resp := paramID(c, "user_id")
	if resp != nil {
		return resp
	}

	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Admin access required"})
	}

	repo := repository.GetGlobalFactory().GetWalletRepository()
	account, err := repo.GetOrCreateByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load wallet"})
	}
	return c.JSON(account)
}
