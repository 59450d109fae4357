package bnsl

import "github.com/shopspring/decimal"

// SettlementBreakdown is the USD and gold outcome of closing a plan early.
// Gold grams are always released in full; the penalty is taken in USD
// against the locked base price, never against current market price, so the
// settlement carries no exposure to price movement after the lock.
type SettlementBreakdown struct {
	GrossReleaseUsd   decimal.Decimal `json:"gross_release_usd"`
	PenaltyUsd        decimal.Decimal `json:"penalty_usd"`
	NetReleaseUsd     decimal.Decimal `json:"net_release_usd"`
	GoldGramsReleased decimal.Decimal `json:"gold_grams_released"`
	PenaltyClamped    bool            `json:"penalty_clamped,omitempty"`
}

// ComputeEarlyTermination computes the early-termination settlement for a
// plan with the given locked valuation, margin disbursed to date, locked
// gold quantity and template fee percent.
//
// penalty = base × feePercent/100. If a pathological fee configuration
// would push the penalty past the gross release value, the penalty is
// clamped to it and the breakdown flags the clamp; net release is never
// negative.
func ComputeEarlyTermination(baseUsd, totalMarginUsd, goldGrams, feePct decimal.Decimal) SettlementBreakdown {
	gross := baseUsd.Add(totalMarginUsd)
	penalty := baseUsd.Mul(feePct).Div(hundred).RoundBank(2)
	if penalty.Sign() < 0 {
		penalty = decimal.Zero
	}

	clamped := false
	if penalty.GreaterThan(gross) {
		penalty = gross
		clamped = true
	}

	return SettlementBreakdown{
		GrossReleaseUsd:   gross,
		PenaltyUsd:        penalty,
		NetReleaseUsd:     gross.Sub(penalty),
		GoldGramsReleased: goldGrams,
		PenaltyClamped:    clamped,
	}
}
