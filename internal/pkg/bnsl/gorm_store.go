package bnsl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/aurumpay/goldlock/internal/pkg/audit"
	"github.com/aurumpay/goldlock/internal/pkg/wallet"
	"gorm.io/gorm"
)

type gormStore struct {
	db     *gorm.DB
	ledger wallet.Ledger
	sink   audit.Sink
}

// NewStore creates the GORM-backed engine store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:     db,
		ledger: wallet.NewLedger(db),
		sink:   audit.NewSink(db),
	}
}

func (s *gormStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{
			db:     tx,
			ledger: wallet.NewLedger(tx),
			sink:   audit.NewSink(tx),
		})
	})
}

func (s *gormStore) Template(ctx context.Context, id uint) (*models.PlanTemplate, error) {
	var t models.PlanTemplate
	err := s.db.WithContext(ctx).Preload("Variants").First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) Plan(ctx context.Context, id uint) (*models.BnslPlan, error) {
	var p models.BnslPlan
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPlanNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) PlanByContractID(ctx context.Context, contractID string) (*models.BnslPlan, error) {
	var p models.BnslPlan
	if err := s.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrPlanNotFound, contractID)
		}
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) CreatePlan(ctx context.Context, plan *models.BnslPlan) error {
	return s.db.WithContext(ctx).Create(plan).Error
}

// UpdatePlan writes changes conditionally on the lock version the plan was
// read with. Zero rows affected means another transition raced us.
func (s *gormStore) UpdatePlan(ctx context.Context, plan *models.BnslPlan, changes map[string]any) error {
	changes["lock_version"] = plan.LockVersion + 1
	tx := s.db.WithContext(ctx).Model(&models.BnslPlan{}).
		Where("id = ? AND lock_version = ?", plan.ID, plan.LockVersion).
		Updates(changes)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: plan %d", ErrConcurrentModification, plan.ID)
	}
	plan.LockVersion++
	return nil
}

func (s *gormStore) CreatePayouts(ctx context.Context, payouts []models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&payouts).Error
}

func (s *gormStore) Payouts(ctx context.Context, planID uint) ([]models.Payout, error) {
	var payouts []models.Payout
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sequence ASC").
		Find(&payouts).Error
	return payouts, err
}

func (s *gormStore) DuePayouts(ctx context.Context, planID uint, asOf time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	err := s.db.WithContext(ctx).
		Where("plan_id = ? AND status = ? AND scheduled_at <= ?", planID, models.PayoutStatusPending, asOf).
		Order("sequence ASC").
		Find(&payouts).Error
	return payouts, err
}

func (s *gormStore) PendingPayouts(ctx context.Context, planID uint) ([]models.Payout, error) {
	var payouts []models.Payout
	err := s.db.WithContext(ctx).
		Where("plan_id = ? AND status = ?", planID, models.PayoutStatusPending).
		Order("sequence ASC").
		Find(&payouts).Error
	return payouts, err
}

// MarkPayoutPaid flips a payout pending -> paid. The status condition is
// the idempotence guard: a payout that is already paid is left untouched
// and false is returned.
func (s *gormStore) MarkPayoutPaid(ctx context.Context, payoutID uint, paidAt time.Time) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutID, models.PayoutStatusPending).
		Updates(map[string]any{
			"status":        models.PayoutStatusPaid,
			"paid_at":       paidAt,
			"failure_count": 0,
			"last_error":    "",
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) CancelPendingPayouts(ctx context.Context, planID uint) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("plan_id = ? AND status = ?", planID, models.PayoutStatusPending).
		Update("status", models.PayoutStatusCancelled)
	return tx.RowsAffected, tx.Error
}

func (s *gormStore) RecordPayoutFailure(ctx context.Context, payoutID uint, failures int, lastError string, escalate bool) error {
	changes := map[string]any{
		"failure_count": failures,
		"last_error":    lastError,
	}
	if escalate {
		changes["status"] = models.PayoutStatusFailed
	}
	return s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", payoutID).
		Updates(changes).Error
}

func (s *gormStore) PlanIDsWithDuePayouts(ctx context.Context, asOf time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Payout{}).
		Distinct("payouts.plan_id").
		Joins("JOIN bnsl_plans ON bnsl_plans.id = payouts.plan_id").
		Where("payouts.status = ? AND payouts.scheduled_at <= ?", models.PayoutStatusPending, asOf).
		Where("bnsl_plans.status = ?", models.PlanStatusActive).
		Pluck("payouts.plan_id", &ids).Error
	return ids, err
}

func (s *gormStore) MaturedPlanIDs(ctx context.Context, asOf time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.BnslPlan{}).
		Where("status = ? AND matures_at IS NOT NULL AND matures_at <= ?", models.PlanStatusActive, asOf).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *gormStore) AuditEntries(ctx context.Context, planID *uint, limit int) ([]models.AuditLogEntry, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLogEntry{}).Order("id DESC")
	if planID != nil {
		q = q.Where("plan_id = ?", *planID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.AuditLogEntry
	err := q.Find(&entries).Error
	return entries, err
}

func (s *gormStore) Wallet() wallet.Ledger {
	return s.ledger
}

func (s *gormStore) Audit() audit.Sink {
	return s.sink
}
