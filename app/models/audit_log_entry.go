package models

import "time"

// Audit action types written by the plan engine.
const (
	AuditActionPlanCreated         = "plan.created"
	AuditActionPlanActivated       = "plan.activated"
	AuditActionPayoutPaid          = "payout.paid"
	AuditActionPayoutEscalated     = "payout.escalated"
	AuditActionTerminationRequest  = "plan.termination_requested"
	AuditActionTerminationApproved = "plan.termination_approved"
	AuditActionTerminationRejected = "plan.termination_rejected"
	AuditActionPlanMatured         = "plan.matured"
	AuditActionPlanSettled         = "plan.settled"
)

// AuditLogEntry is an append-only record of an engine transition. Entries
// are never updated or deleted; admin review screens read them as-is.
type AuditLogEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlanID       uint      `gorm:"not null;index" json:"plan_id"`
	Actor        string    `gorm:"type:varchar(100);not null" json:"actor"`
	Action       string    `gorm:"type:varchar(60);not null;index" json:"action"`
	BeforeStatus string    `gorm:"type:varchar(32);default:''" json:"before_status"`
	AfterStatus  string    `gorm:"type:varchar(32);default:''" json:"after_status"`
	DetailJSON   string    `gorm:"type:longtext" json:"detail_json,omitempty"`
	Warning      bool      `gorm:"not null;default:false" json:"warning"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
