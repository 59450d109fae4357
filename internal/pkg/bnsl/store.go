package bnsl

import (
	"context"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/aurumpay/goldlock/internal/pkg/audit"
	"github.com/aurumpay/goldlock/internal/pkg/wallet"
)

// Store is the persistence boundary of the plan engine. Transact yields a
// store whose writes, wallet movements and audit appends commit atomically;
// a returned error rolls everything back.
//
// UpdatePlan and MarkPayoutPaid are conditional writes: UpdatePlan bumps
// the plan's lock version and fails with ErrConcurrentModification when
// another transition got there first, MarkPayoutPaid only flips a payout
// that is still pending.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error

	Template(ctx context.Context, id uint) (*models.PlanTemplate, error)

	Plan(ctx context.Context, id uint) (*models.BnslPlan, error)
	PlanByContractID(ctx context.Context, contractID string) (*models.BnslPlan, error)
	CreatePlan(ctx context.Context, plan *models.BnslPlan) error
	UpdatePlan(ctx context.Context, plan *models.BnslPlan, changes map[string]any) error

	CreatePayouts(ctx context.Context, payouts []models.Payout) error
	Payouts(ctx context.Context, planID uint) ([]models.Payout, error)
	DuePayouts(ctx context.Context, planID uint, asOf time.Time) ([]models.Payout, error)
	PendingPayouts(ctx context.Context, planID uint) ([]models.Payout, error)
	MarkPayoutPaid(ctx context.Context, payoutID uint, paidAt time.Time) (bool, error)
	CancelPendingPayouts(ctx context.Context, planID uint) (int64, error)
	RecordPayoutFailure(ctx context.Context, payoutID uint, failures int, lastError string, escalate bool) error

	PlanIDsWithDuePayouts(ctx context.Context, asOf time.Time) ([]uint, error)
	MaturedPlanIDs(ctx context.Context, asOf time.Time) ([]uint, error)

	AuditEntries(ctx context.Context, planID *uint, limit int) ([]models.AuditLogEntry, error)

	Wallet() wallet.Ledger
	Audit() audit.Sink
}
