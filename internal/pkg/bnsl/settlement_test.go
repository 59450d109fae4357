package bnsl

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeEarlyTermination(t *testing.T) {
	b := ComputeEarlyTermination(dec("9350.00"), dec("374.00"), dec("100"), dec("2"))

	if !b.PenaltyUsd.Equal(dec("187.00")) {
		t.Fatalf("penalty = %s, want 187.00", b.PenaltyUsd)
	}
	if !b.GrossReleaseUsd.Equal(dec("9724.00")) {
		t.Fatalf("gross = %s, want 9724.00", b.GrossReleaseUsd)
	}
	if !b.NetReleaseUsd.Equal(dec("9537.00")) {
		t.Fatalf("net = %s, want 9537.00", b.NetReleaseUsd)
	}
	if !b.GoldGramsReleased.Equal(dec("100")) {
		t.Fatalf("grams = %s, want 100", b.GoldGramsReleased)
	}
	if b.PenaltyClamped {
		t.Fatal("penalty should not be clamped")
	}
}

func TestComputeEarlyTerminationZeroFee(t *testing.T) {
	b := ComputeEarlyTermination(dec("9350.00"), dec("0"), dec("100"), dec("0"))
	if !b.PenaltyUsd.IsZero() {
		t.Fatalf("penalty = %s, want 0", b.PenaltyUsd)
	}
	if !b.NetReleaseUsd.Equal(dec("9350.00")) {
		t.Fatalf("net = %s, want 9350.00", b.NetReleaseUsd)
	}
}

func TestComputeEarlyTerminationClampsPathologicalFee(t *testing.T) {
	// Fee over 100% of base would exceed the gross value once margin is
	// small; the penalty clamps and the net never goes negative.
	b := ComputeEarlyTermination(dec("1000.00"), dec("0"), dec("10"), dec("150"))
	if !b.PenaltyClamped {
		t.Fatal("expected clamp flag")
	}
	if !b.PenaltyUsd.Equal(dec("1000.00")) {
		t.Fatalf("clamped penalty = %s, want 1000.00", b.PenaltyUsd)
	}
	if !b.NetReleaseUsd.IsZero() {
		t.Fatalf("net = %s, want 0", b.NetReleaseUsd)
	}
}

func TestNetReleaseNeverNegative(t *testing.T) {
	bases := []string{"0", "0.01", "100.00", "9350.00", "1000000.00"}
	margins := []string{"0", "0.01", "374.00", "99999.99"}

	for _, base := range bases {
		for _, margin := range margins {
			for fee := 0; fee <= 100; fee += 5 {
				b := ComputeEarlyTermination(dec(base), dec(margin), dec("1"), decimal.NewFromInt(int64(fee)))
				if b.NetReleaseUsd.Sign() < 0 {
					t.Fatalf("negative net %s for base=%s margin=%s fee=%d", b.NetReleaseUsd, base, margin, fee)
				}
			}
		}
	}
}
