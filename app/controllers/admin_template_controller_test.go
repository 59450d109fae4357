package controllers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurumpay/goldlock/app/models"
)

func validTemplateRequest() TemplateRequest {
	return TemplateRequest{
		Name:                   "Gold Saver 12",
		Status:                 models.TemplateStatusActive,
		MinGoldGrams:           "10",
		MaxGoldGrams:           "1000",
		PayoutFrequency:        models.PayoutFrequencyQuarterly,
		EarlyTerminationFeePct: "2",
	}
}

func TestTemplateRequestApply(t *testing.T) {
	t.Parallel()

	req := validTemplateRequest()
	req.MinMarginAnnualPct = "4"
	req.MaxMarginAnnualPct = "12"

	var template models.PlanTemplate
	require.NoError(t, req.apply(&template))

	assert.Equal(t, "Gold Saver 12", template.Name)
	assert.Equal(t, models.TemplateStatusActive, template.Status)
	assert.Equal(t, models.PayoutFrequencyQuarterly, template.PayoutFrequency)
	assert.True(t, template.MinGoldGrams.Equal(decimal.NewFromInt(10)))
	assert.True(t, template.MaxGoldGrams.Equal(decimal.NewFromInt(1000)))
	assert.True(t, template.EarlyTerminationFeePct.Equal(decimal.NewFromInt(2)))
	assert.True(t, template.MinMarginAnnualPct.Equal(decimal.NewFromInt(4)))
	assert.True(t, template.MaxMarginAnnualPct.Equal(decimal.NewFromInt(12)))
	assert.True(t, template.HasMarginBounds())
}

func TestTemplateRequestApplyRejectsBadDecimals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*TemplateRequest)
	}{
		{"missing min gold", func(r *TemplateRequest) { r.MinGoldGrams = "" }},
		{"garbage max gold", func(r *TemplateRequest) { r.MaxGoldGrams = "lots" }},
		{"negative fee", func(r *TemplateRequest) { r.EarlyTerminationFeePct = "-1" }},
		{"max below min", func(r *TemplateRequest) { r.MinGoldGrams = "50"; r.MaxGoldGrams = "10" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := validTemplateRequest()
			tc.mutate(&req)

			var template models.PlanTemplate
			assert.Error(t, req.apply(&template))
		})
	}
}

func TestTemplateRequestApplyOptionalFieldsStayZero(t *testing.T) {
	t.Parallel()

	req := validTemplateRequest()

	var template models.PlanTemplate
	require.NoError(t, req.apply(&template))

	assert.True(t, template.AdminFeePct.IsZero())
	assert.False(t, template.HasMarginBounds())
}
