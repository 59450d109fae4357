package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout states. A payout moves pending -> paid on a successful accrual
// tick, pending -> failed after repeated wallet credit failures, and
// pending -> cancelled when early termination voids the remaining schedule.
const (
	PayoutStatusPending   = "pending"
	PayoutStatusPaid      = "paid"
	PayoutStatusFailed    = "failed"
	PayoutStatusCancelled = "cancelled"
)

// PayoutFailureEscalation is the number of consecutive wallet credit
// failures after which a payout stops being retried and is escalated.
const PayoutFailureEscalation = 3

// Payout is one scheduled margin disbursement of a plan. The full schedule
// is generated at activation; rows are mutated only by the accrual tick or
// by settlement.
type Payout struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	PlanID       uint            `gorm:"not null;index:idx_payouts_plan_status,priority:1" json:"plan_id"`
	Sequence     int             `gorm:"not null" json:"sequence"`
	AmountUsd    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_usd"`
	ScheduledAt  time.Time       `gorm:"type:timestamp;not null;index" json:"scheduled_at"`
	Status       string          `gorm:"type:varchar(20);not null;default:'pending';index:idx_payouts_plan_status,priority:2" json:"status"`
	PaidAt       *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	FailureCount int             `gorm:"not null;default:0" json:"failure_count"`
	LastError    string          `gorm:"type:varchar(500);default:''" json:"last_error,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payout) TableName() string {
	return "payouts"
}

// IsDue reports whether the payout is pending and scheduled at or before t.
func (p *Payout) IsDue(t time.Time) bool {
	return p.Status == PayoutStatusPending && !p.ScheduledAt.After(t)
}
