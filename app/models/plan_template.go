package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Template lifecycle states. Only active templates can back new plans.
const (
	TemplateStatusDraft    = "draft"
	TemplateStatusActive   = "active"
	TemplateStatusInactive = "inactive"
)

// Payout frequencies supported by plan templates.
const (
	PayoutFrequencyMonthly   = "monthly"
	PayoutFrequencyQuarterly = "quarterly"
	PayoutFrequencyAnnually  = "annually"
)

// PlanTemplate is the admin-owned configuration a BNSL plan is created from.
// Templates are read-only to the plan engine.
type PlanTemplate struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	Name                   string          `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=3,max=150"`
	Status                 string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status" validate:"oneof=draft active inactive"`
	MinGoldGrams           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"min_gold_grams"`
	MaxGoldGrams           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"max_gold_grams"`
	PayoutFrequency        string          `gorm:"type:varchar(20);not null;default:'monthly'" json:"payout_frequency" validate:"oneof=monthly quarterly annually"`
	EarlyTerminationFeePct decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"early_termination_fee_percent"`
	AdminFeePct            decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"admin_fee_percent"`
	MinMarginAnnualPct     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"min_margin_annual_percent"`
	MaxMarginAnnualPct     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"max_margin_annual_percent"`
	ViewCount              uint64          `gorm:"not null;default:0" json:"view_count"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Variants []TemplateVariant `gorm:"foreignKey:TemplateID" json:"variants,omitempty"`
}

func (PlanTemplate) TableName() string {
	return "plan_templates"
}

// IsActive reports whether the template may back new plans.
func (t *PlanTemplate) IsActive() bool {
	return t.Status == TemplateStatusActive
}

// HasMarginBounds reports whether hard min/max margin bounds are configured.
// Both zero means unbounded (admin override rates are accepted as-is).
func (t *PlanTemplate) HasMarginBounds() bool {
	return !t.MinMarginAnnualPct.IsZero() || !t.MaxMarginAnnualPct.IsZero()
}

// TemplateVariant is one selectable tenor/rate combination of a template.
// Variants activate and deactivate independently of each other.
type TemplateVariant struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TemplateID      uint            `gorm:"not null;index:ux_template_variants_tenor,unique,priority:1" json:"template_id"`
	TenorMonths     int             `gorm:"not null;index:ux_template_variants_tenor,unique,priority:2" json:"tenor_months" validate:"required,min=1,max=120"`
	MarginAnnualPct decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"margin_annual_percent"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TemplateVariant) TableName() string {
	return "template_variants"
}
