package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/aurumpay/goldlock/app/repository"
	"github.com/aurumpay/goldlock/internal/pkg/metrics/counter"
)

// TemplateRequest is the admin payload for creating or updating a plan
// template. Decimal fields travel as strings.
type TemplateRequest struct {
	Name                   string `json:"name" validate:"required,min=3,max=150"`
	Status                 string `json:"status" validate:"required,oneof=draft active inactive"`
	MinGoldGrams           string `json:"min_gold_grams" validate:"required"`
	MaxGoldGrams           string `json:"max_gold_grams" validate:"required"`
	PayoutFrequency        string `json:"payout_frequency" validate:"required,oneof=monthly quarterly annually"`
	EarlyTerminationFeePct string `json:"early_termination_fee_percent" validate:"required"`
	AdminFeePct            string `json:"admin_fee_percent,omitempty"`
	MinMarginAnnualPct     string `json:"min_margin_annual_percent,omitempty"`
	MaxMarginAnnualPct     string `json:"max_margin_annual_percent,omitempty"`
}

func (r *TemplateRequest) apply(t *models.PlanTemplate) error {
	fields := []struct {
		raw      string
		dst      *decimal.Decimal
		name     string
		required bool
	}{
		{r.MinGoldGrams, &t.MinGoldGrams, "min_gold_grams", true},
		{r.MaxGoldGrams, &t.MaxGoldGrams, "max_gold_grams", true},
		{r.EarlyTerminationFeePct, &t.EarlyTerminationFeePct, "early_termination_fee_percent", true},
		{r.AdminFeePct, &t.AdminFeePct, "admin_fee_percent", false},
		{r.MinMarginAnnualPct, &t.MinMarginAnnualPct, "min_margin_annual_percent", false},
		{r.MaxMarginAnnualPct, &t.MaxMarginAnnualPct, "max_margin_annual_percent", false},
	}
	for _, f := range fields {
		if f.raw == "" {
			if f.required {
				return errors.New(f.name + " is required")
			}
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil || v.IsNegative() {
			return errors.New(f.name + " must be a non-negative decimal string")
		}
		*f.dst = v
	}
	if t.MaxGoldGrams.LessThan(t.MinGoldGrams) {
		return errors.New("max_gold_grams must not be below min_gold_grams")
	}
	t.Name = r.Name
	t.Status = r.Status
	t.PayoutFrequency = r.PayoutFrequency
	return nil
}

// HandleAdminCreateTemplate creates a plan template.
func HandleAdminCreateTemplate(c *fiber.Ctx) error {
	var req TemplateRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	var template models.PlanTemplate
	if err := req.apply(&template); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	if err := repo.Create(&template); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create template"})
	}
	return c.Status(fiber.StatusCreated).JSON(template)
}

// HandleAdminUpdateTemplate updates an existing plan template. Existing
// plans keep the terms they were created with.
func HandleAdminUpdateTemplate(c *fiber.Ctx) error {
	templateID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	var req TemplateRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	template, err := repo.GetByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load template"})
	}

	if err := req.apply(template); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := repo.Update(template); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update template"})
	}
	return c.JSON(template)
}

// HandleAdminGetTemplate returns one template with its variants.
func HandleAdminGetTemplate(c *fiber.Ctx) error {
	templateID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	template, err := repo.GetByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load template"})
	}

	if err := counter.AddTemplateView(templateID); err != nil {
		log.Debugf("failed to count template view %d: %v", templateID, err)
	}

	return c.JSON(template)
}

// HandleAdminListTemplates lists templates, optionally filtered by status.
func HandleAdminListTemplates(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetTemplateRepository()
	templates, err := repo.List(c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load templates"})
	}
	return c.JSON(fiber.Map{"templates": templates})
}

// VariantRequest is the admin payload for adding or updating a tenor
// variant on a template.
type VariantRequest struct {
	TenorMonths     int    `json:"tenor_months" validate:"required,min=1,max=120"`
	MarginAnnualPct string `json:"margin_annual_percent" validate:"required"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// HandleAdminAddVariant adds a tenor variant to a template.
func HandleAdminAddVariant(c *fiber.Ctx) error {
	templateID, resp := paramID(c, "id")
	if resp != nil {
		return resp
	}

	var req VariantRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	rate, err := decimal.NewFromString(req.MarginAnnualPct)
	if err != nil || rate.IsNegative() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "margin_annual_percent must be a non-negative decimal string"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	if _, err := repo.GetByID(templateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load template"})
	}

	variant := models.TemplateVariant{
		TemplateID:      templateID,
		TenorMonths:     req.TenorMonths,
		MarginAnnualPct: rate,
		IsActive:        true,
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}
	if err := repo.AddVariant(&variant); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to add variant"})
	}
	return c.Status(fiber.StatusCreated).JSON(variant)
}

// HandleAdminUpdateVariant updates a tenor variant.
func HandleAdminUpdateVariant(c *fiber.Ctx) error {
	variantID, resp := paramID(c, "variant_id")
	if resp != nil {
		return resp
	}

	var req VariantRequest
	if resp := parseBody(c, &req); resp != nil {
		return resp
	}

	rate, err := decimal.NewFromString(req.MarginAnnualPct)
	if err != nil || rate.IsNegative() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "margin_annual_percent must be a non-negative decimal string"})
	}

	repo := repository.GetGlobalFactory().GetTemplateRepository()
	variant, err := repo.GetVariant(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Variant not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load variant"})
	}

	variant.TenorMonths = req.TenorMonths
	variant.MarginAnnualPct = rate
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}
	if err := repo.UpdateVariant(variant); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update variant"})
	}
	return c.JSON(variant)
}

// HandleListActiveTemplates returns active templates for plan creation
// screens. User-facing, read-only.
func HandleListActiveTemplates(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetTemplateRepository()
	templates, err := repo.List(models.TemplateStatusActive)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load templates"})
	}
	return c.JSON(fiber.Map{"templates": templates})
}
