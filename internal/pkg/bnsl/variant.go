package bnsl

import (
	"fmt"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/shopspring/decimal"
)

// SelectVariant returns the active template variant matching the requested
// tenor, or ErrNoMatchingVariant.
func SelectVariant(template *models.PlanTemplate, tenorMonths int) (*models.TemplateVariant, error) {
	for i := range template.Variants {
		v := &template.Variants[i]
		if v.TenorMonths == tenorMonths && v.IsActive {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: tenor %d months on template %d", ErrNoMatchingVariant, tenorMonths, template.ID)
}

// ValidateMarginRate checks a (possibly admin-overridden) annual margin
// rate against the template's hard bounds. Templates without configured
// bounds accept any non-negative rate.
func ValidateMarginRate(template *models.PlanTemplate, rate decimal.Decimal) error {
	if rate.Sign() < 0 {
		return fmt.Errorf("%w: rate %s is negative", ErrRateOutOfBounds, rate)
	}
	if !template.HasMarginBounds() {
		return nil
	}
	if rate.LessThan(template.MinMarginAnnualPct) || rate.GreaterThan(template.MaxMarginAnnualPct) {
		return fmt.Errorf("%w: rate %s outside [%s, %s]",
			ErrRateOutOfBounds, rate, template.MinMarginAnnualPct, template.MaxMarginAnnualPct)
	}
	return nil
}

// ValidateGoldAmount checks the requested gold quantity against the
// template's min/max bounds.
func ValidateGoldAmount(template *models.PlanTemplate, grams decimal.Decimal) error {
	if grams.Sign() <= 0 {
		return fmt.Errorf("%w: amount %s must be positive", ErrGoldOutOfRange, grams)
	}
	if grams.LessThan(template.MinGoldGrams) || grams.GreaterThan(template.MaxGoldGrams) {
		return fmt.Errorf("%w: %s outside [%s, %s]",
			ErrGoldOutOfRange, grams, template.MinGoldGrams, template.MaxGoldGrams)
	}
	return nil
}
