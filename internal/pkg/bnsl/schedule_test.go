package bnsl

import (
	"errors"
	"testing"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/shopspring/decimal"
)

func TestTotalMargin(t *testing.T) {
	tests := []struct {
		base   string
		rate   string
		months int
		want   string
	}{
		{base: "9350.00", rate: "8", months: 12, want: "748.00"},
		{base: "9350.00", rate: "8", months: 6, want: "374.00"},
		{base: "1000.00", rate: "10", months: 12, want: "100.00"},
		{base: "1000.00", rate: "0", months: 12, want: "0.00"},
		{base: "333.33", rate: "7.5", months: 9, want: "18.75"},
	}

	for _, tt := range tests {
		got := TotalMargin(dec(tt.base), dec(tt.rate), tt.months)
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("TotalMargin(%s, %s%%, %dm) = %s, want %s", tt.base, tt.rate, tt.months, got, tt.want)
		}
	}
}

func TestBuildScheduleEvenDistribution(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	payouts, err := BuildSchedule(dec("9350.00"), dec("8"), 12, models.PayoutFrequencyQuarterly, start)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(payouts) != 4 {
		t.Fatalf("count = %d, want 4", len(payouts))
	}
	for i, p := range payouts {
		if p.Sequence != i+1 {
			t.Fatalf("sequence %d at index %d", p.Sequence, i)
		}
		wantDate := start.AddDate(0, 3*(i+1), 0)
		if !p.ScheduledAt.Equal(wantDate) {
			t.Fatalf("payout %d scheduled %s, want %s", p.Sequence, p.ScheduledAt, wantDate)
		}
		if !p.AmountUsd.Equal(dec("187.00")) {
			t.Fatalf("payout %d amount %s, want 187.00", p.Sequence, p.AmountUsd)
		}
	}
}

func TestBuildScheduleRoundingResidualOnFinalPayout(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// 1000 × 10% × 12/12 = 100.00; 100/12 = 8.33 rounded, residual on last.
	payouts, err := BuildSchedule(dec("1000.00"), dec("10"), 12, models.PayoutFrequencyMonthly, start)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(payouts) != 12 {
		t.Fatalf("count = %d, want 12", len(payouts))
	}

	sum := decimal.Zero
	for _, p := range payouts {
		sum = sum.Add(p.AmountUsd)
	}
	if !sum.Equal(dec("100.00")) {
		t.Fatalf("schedule sum = %s, want 100.00", sum)
	}
	if !payouts[0].AmountUsd.Equal(dec("8.33")) {
		t.Fatalf("regular payout = %s, want 8.33", payouts[0].AmountUsd)
	}
	if !payouts[11].AmountUsd.Equal(dec("8.37")) {
		t.Fatalf("final payout = %s, want 8.37", payouts[11].AmountUsd)
	}
}

func TestBuildScheduleCentScaleTotalStaysNonNegative(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// 1.00 × 18% × 12/12 = 0.18; 0.18/12 rounds half-even to 0.02, which
	// over 11 periods would leave -0.04 for the final payout.
	payouts, err := BuildSchedule(dec("1.00"), dec("18"), 12, models.PayoutFrequencyMonthly, start)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	sum := decimal.Zero
	for _, p := range payouts {
		if p.AmountUsd.IsNegative() {
			t.Fatalf("payout %d amount %s is negative", p.Sequence, p.AmountUsd)
		}
		sum = sum.Add(p.AmountUsd)
	}
	if !sum.Equal(dec("0.18")) {
		t.Fatalf("schedule sum = %s, want 0.18", sum)
	}
	if !payouts[0].AmountUsd.Equal(dec("0.01")) {
		t.Fatalf("regular payout = %s, want 0.01", payouts[0].AmountUsd)
	}
	if !payouts[11].AmountUsd.Equal(dec("0.07")) {
		t.Fatalf("final payout = %s, want 0.07", payouts[11].AmountUsd)
	}
}

func TestBuildScheduleAnnualFrequency(t *testing.T) {
	start := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	payouts, err := BuildSchedule(dec("5000.00"), dec("5"), 24, models.PayoutFrequencyAnnually, start)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(payouts) != 2 {
		t.Fatalf("count = %d, want 2", len(payouts))
	}
	// 5000 × 5% × 2 = 500 total, 250 per year.
	for _, p := range payouts {
		if !p.AmountUsd.Equal(dec("250.00")) {
			t.Fatalf("payout %d = %s, want 250.00", p.Sequence, p.AmountUsd)
		}
	}
}

func TestBuildScheduleRejectsIndivisibleTenor(t *testing.T) {
	start := time.Now()
	_, err := BuildSchedule(dec("1000.00"), dec("8"), 8, models.PayoutFrequencyQuarterly, start)
	if !errors.Is(err, ErrInvalidTenor) {
		t.Fatalf("expected ErrInvalidTenor, got %v", err)
	}
	_, err = BuildSchedule(dec("1000.00"), dec("8"), 6, models.PayoutFrequencyAnnually, start)
	if !errors.Is(err, ErrInvalidTenor) {
		t.Fatalf("expected ErrInvalidTenor, got %v", err)
	}
}

func TestBuildScheduleRejectsUnknownFrequency(t *testing.T) {
	if _, err := BuildSchedule(dec("1000.00"), dec("8"), 12, "weekly", time.Now()); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}
