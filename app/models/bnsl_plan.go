package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan lifecycle states.
const (
	PlanStatusDraft                = "draft"
	PlanStatusActive               = "active"
	PlanStatusTerminationRequested = "early_termination_requested"
	PlanStatusMatured              = "matured"
	PlanStatusCompleted            = "completed"
	PlanStatusTerminated           = "terminated"
)

// Early-termination request states recorded on the plan.
const (
	TerminationRequested = "requested"
	TerminationApproved  = "approved"
	TerminationRejected  = "rejected"
)

// BnslPlan is a buy-now-sell-later contract: a gold quantity locked at a
// point-in-time USD valuation, accruing margin over a fixed tenor.
//
// BasePriceUsd is fixed at activation and never recomputed from live price.
// TotalMarginUsd only grows while the plan is active. GoldGrams leaves the
// locked bucket exactly once, at completion or termination.
type BnslPlan struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ContractID string `gorm:"type:varchar(40);not null;uniqueIndex" json:"contract_id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	TemplateID uint   `gorm:"not null;index" json:"template_id"`
	VariantID  uint   `gorm:"not null" json:"variant_id"`

	GoldGrams        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"gold_grams"`
	BasePriceUsd     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"base_price_usd"`
	LockPricePerGram decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"lock_price_per_gram"`
	MarginAnnualPct  decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"margin_annual_percent"`
	TenorMonths      int             `gorm:"not null" json:"tenor_months"`
	PayoutFrequency  string          `gorm:"type:varchar(20);not null" json:"payout_frequency"`

	TotalMarginUsd decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_margin_usd"`
	LastAccrualAt  *time.Time      `gorm:"type:timestamp;default:null" json:"last_accrual_at,omitempty"`

	Status      string     `gorm:"type:varchar(32);not null;default:'draft';index" json:"status"`
	ActivatedAt *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	MaturesAt   *time.Time `gorm:"type:timestamp;default:null;index" json:"matures_at,omitempty"`
	ClosedAt    *time.Time `gorm:"type:timestamp;default:null" json:"closed_at,omitempty"`

	// Early-termination sub-record, zero-valued until a request is made.
	TerminationStatus      string           `gorm:"type:varchar(20);default:''" json:"termination_status,omitempty"`
	TerminationRequestedAt *time.Time       `gorm:"type:timestamp;default:null" json:"termination_requested_at,omitempty"`
	TerminationPenaltyUsd  *decimal.Decimal `gorm:"type:decimal(20,2);default:null" json:"termination_penalty_usd,omitempty"`

	// Optimistic concurrency guard: every transition bumps the version and
	// writes conditionally on the version it read.
	LockVersion uint `gorm:"not null;default:0" json:"-"`

	// Read analytics, batched through Redis and flushed periodically.
	ViewCount uint64 `gorm:"not null;default:0" json:"view_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Template *PlanTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Payouts  []Payout      `gorm:"foreignKey:PlanID" json:"payouts,omitempty"`
}

func (BnslPlan) TableName() string {
	return "bnsl_plans"
}

// IsTerminal reports whether the plan allows no further transitions.
func (p *BnslPlan) IsTerminal() bool {
	return p.Status == PlanStatusCompleted || p.Status == PlanStatusTerminated
}

// IsMature reports whether the plan has reached the end of its tenor at t.
func (p *BnslPlan) IsMature(t time.Time) bool {
	return p.MaturesAt != nil && !t.Before(*p.MaturesAt)
}
