package bnsl

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aurumpay/goldlock/app/models"
)

func boundedTemplate() *models.PlanTemplate {
	return &models.PlanTemplate{
		ID:                 3,
		Status:             models.TemplateStatusActive,
		MinGoldGrams:       dec("1"),
		MaxGoldGrams:       dec("500"),
		MinMarginAnnualPct: dec("2"),
		MaxMarginAnnualPct: dec("12"),
		Variants: []models.TemplateVariant{
			{ID: 1, TenorMonths: 6, MarginAnnualPct: dec("5"), IsActive: true},
			{ID: 2, TenorMonths: 12, MarginAnnualPct: dec("8"), IsActive: false},
		},
	}
}

func TestSelectVariant(t *testing.T) {
	tpl := boundedTemplate()

	v, err := SelectVariant(tpl, 6)
	if err != nil {
		t.Fatalf("SelectVariant: %v", err)
	}
	if v.ID != 1 {
		t.Fatalf("selected variant %d, want 1", v.ID)
	}

	if _, err := SelectVariant(tpl, 12); !errors.Is(err, ErrNoMatchingVariant) {
		t.Fatalf("inactive variant: expected ErrNoMatchingVariant, got %v", err)
	}
	if _, err := SelectVariant(tpl, 36); !errors.Is(err, ErrNoMatchingVariant) {
		t.Fatalf("unknown tenor: expected ErrNoMatchingVariant, got %v", err)
	}
}

func TestValidateMarginRate(t *testing.T) {
	tpl := boundedTemplate()

	if err := ValidateMarginRate(tpl, dec("8")); err != nil {
		t.Fatalf("in-bounds rate rejected: %v", err)
	}
	if err := ValidateMarginRate(tpl, dec("2")); err != nil {
		t.Fatalf("lower bound rejected: %v", err)
	}
	if err := ValidateMarginRate(tpl, dec("12")); err != nil {
		t.Fatalf("upper bound rejected: %v", err)
	}
	if err := ValidateMarginRate(tpl, dec("1.99")); !errors.Is(err, ErrRateOutOfBounds) {
		t.Fatalf("below bounds: expected ErrRateOutOfBounds, got %v", err)
	}
	if err := ValidateMarginRate(tpl, dec("12.01")); !errors.Is(err, ErrRateOutOfBounds) {
		t.Fatalf("above bounds: expected ErrRateOutOfBounds, got %v", err)
	}

	unbounded := &models.PlanTemplate{}
	if err := ValidateMarginRate(unbounded, dec("40")); err != nil {
		t.Fatalf("unbounded template rejected rate: %v", err)
	}
	if err := ValidateMarginRate(unbounded, dec("-1")); !errors.Is(err, ErrRateOutOfBounds) {
		t.Fatalf("negative rate: expected ErrRateOutOfBounds, got %v", err)
	}
}

func TestValidateGoldAmount(t *testing.T) {
	tpl := boundedTemplate()

	if err := ValidateGoldAmount(tpl, dec("100")); err != nil {
		t.Fatalf("in-bounds amount rejected: %v", err)
	}
	for _, bad := range []string{"0", "-5", "0.5", "501"} {
		if err := ValidateGoldAmount(tpl, dec(bad)); !errors.Is(err, ErrGoldOutOfRange) {
			t.Fatalf("amount %s: expected ErrGoldOutOfRange, got %v", bad, err)
		}
	}
}

func TestNewContractID(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	id := NewContractID(now)
	if !strings.HasPrefix(id, "BNSL-2026-") {
		t.Fatalf("unexpected prefix: %s", id)
	}
	if len(id) != len("BNSL-2026-")+8 {
		t.Fatalf("unexpected length: %s", id)
	}
	if NewContractID(now) == id {
		t.Fatal("contract ids should not repeat")
	}
}
