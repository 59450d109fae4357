package bnsl

import (
	"fmt"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)
var hundred = decimal.NewFromInt(100)

// monthsPerPeriod maps a payout frequency to the interval length in months.
func monthsPerPeriod(frequency string) (int, error) {
	switch frequency {
	case models.PayoutFrequencyMonthly:
		return 1, nil
	case models.PayoutFrequencyQuarterly:
		return 3, nil
	case models.PayoutFrequencyAnnually:
		return 12, nil
	default:
		return 0, fmt.Errorf("unknown payout frequency %q", frequency)
	}
}

// TotalMargin computes the contractually agreed margin at maturity:
// base × annualRate/100 × tenorMonths/12, rounded half-even to the cent.
func TotalMargin(baseUsd, annualPct decimal.Decimal, tenorMonths int) decimal.Decimal {
	return baseUsd.
		Mul(annualPct).Div(hundred).
		Mul(decimal.NewFromInt(int64(tenorMonths))).Div(twelve).
		RoundBank(2)
}

// BuildSchedule generates the full payout schedule for a plan activated at
// activatedAt. Amounts are distributed evenly across periods and rounded
// half-even to the cent; the rounding residual lands on the final payout so
// the schedule sums exactly to TotalMargin.
func BuildSchedule(baseUsd, annualPct decimal.Decimal, tenorMonths int, frequency string, activatedAt time.Time) ([]models.Payout, error) {
	step, err := monthsPerPeriod(frequency)
	if err != nil {
		return nil, err
	}
	if tenorMonths <= 0 || tenorMonths%step != 0 {
		return nil, fmt.Errorf("%w: %d months not divisible by %s period", ErrInvalidTenor, tenorMonths, frequency)
	}

	count := tenorMonths / step
	total := TotalMargin(baseUsd, annualPct, tenorMonths)
	periods := decimal.NewFromInt(int64(count))
	per := total.Div(periods).RoundBank(2)
	last := total.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))
	if last.IsNegative() {
		// On cent-scale totals half-even rounding can overshoot and push
		// the residual below zero; rounding down keeps every amount
		// non-negative with the residual still on the final payout.
		per = total.Div(periods).RoundDown(2)
		last = total.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))
	}

	payouts := make([]models.Payout, 0, count)
	for i := 1; i <= count; i++ {
		amount := per
		if i == count {
			amount = last
		}
		payouts = append(payouts, models.Payout{
			Sequence:    i,
			AmountUsd:   amount,
			ScheduledAt: activatedAt.AddDate(0, step*i, 0),
			Status:      models.PayoutStatusPending,
		})
	}
	return payouts, nil
}
