package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/aurumpay/goldlock/internal/pkg/bnsl"
	"github.com/aurumpay/goldlock/internal/pkg/goldprice"
)

var validate = validator.New()

// parseBody parses the JSON request body into dst and validates it.
// A non-nil return is a ready-to-send fiber response.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(dst); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	return nil
}

// engineError maps plan engine errors to HTTP responses. Validation
// failures are 422, state conflicts 409, lost writes 409 with a retry
// hint, oracle outages 503.
func engineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, bnsl.ErrPlanNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	case errors.Is(err, bnsl.ErrTemplateInactive),
		errors.Is(err, bnsl.ErrNoMatchingVariant),
		errors.Is(err, bnsl.ErrInvalidTenor),
		errors.Is(err, bnsl.ErrGoldOutOfRange),
		errors.Is(err, bnsl.ErrRateOutOfBounds),
		errors.Is(err, bnsl.ErrInsufficientBalance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	case errors.Is(err, bnsl.ErrNotDraft),
		errors.Is(err, bnsl.ErrNotActive),
		errors.Is(err, bnsl.ErrNoTerminationRequested),
		errors.Is(err, bnsl.ErrNotMature):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": err.Error()})
	case errors.Is(err, bnsl.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Plan was modified concurrently, retry the request"})
	case errors.Is(err, goldprice.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "price_unavailable", "message": "Gold price feed unavailable, try again later"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Unexpected error"})
	}
}

// paramID parses a numeric path parameter. The second return is a
// ready-to-send fiber response when parsing fails.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id < 1 {
		return 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": name + " must be a positive integer"})
	}
	return uint(id), nil
}
