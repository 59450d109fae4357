package bnsl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/aurumpay/goldlock/internal/pkg/audit"
	"github.com/aurumpay/goldlock/internal/pkg/wallet"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store with snapshot-based transaction rollback,
// so atomicity properties (gold conservation under ledger failures) are
// observable in unit tests.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	templates map[uint]models.PlanTemplate
	plans     map[uint]models.BnslPlan
	payouts   map[uint]models.Payout
	wallets   map[uint]models.WalletAccount
	audits    []models.AuditLogEntry

	nextPlanID   uint
	nextPayoutID uint

	// failure injection
	failCreditCash   int
	failCreditLocked bool
	failDebitCash    bool
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[uint]models.PlanTemplate),
		plans:     make(map[uint]models.BnslPlan),
		payouts:   make(map[uint]models.Payout),
		wallets:   make(map[uint]models.WalletAccount),
	}
}

type memSnapshot struct {
	plans   map[uint]models.BnslPlan
	payouts map[uint]models.Payout
	wallets map[uint]models.WalletAccount
	audits  []models.AuditLogEntry
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		plans:   make(map[uint]models.BnslPlan, len(s.plans)),
		payouts: make(map[uint]models.Payout, len(s.payouts)),
		wallets: make(map[uint]models.WalletAccount, len(s.wallets)),
		audits:  append([]models.AuditLogEntry(nil), s.audits...),
	}
	for k, v := range s.plans {
		snap.plans[k] = v
	}
	for k, v := range s.payouts {
		snap.payouts[k] = v
	}
	for k, v := range s.wallets {
		snap.wallets[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = snap.plans
	s.payouts = snap.payouts
	s.wallets = snap.wallets
	s.audits = snap.audits
}

func (s *memStore) Transact(_ context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Template(_ context.Context, id uint) (*models.PlanTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %d", ErrTemplateInactive, id)
	}
	cp := t
	return &cp, nil
}

func (s *memStore) Plan(_ context.Context, id uint) (*models.BnslPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPlanNotFound, id)
	}
	cp := p
	return &cp, nil
}

func (s *memStore) PlanByContractID(_ context.Context, contractID string) (*models.BnslPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.ContractID == contractID {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: contract %s", ErrPlanNotFound, contractID)
}

func (s *memStore) CreatePlan(_ context.Context, plan *models.BnslPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlanID++
	plan.ID = s.nextPlanID
	s.plans[plan.ID] = *plan
	return nil
}

func (s *memStore) UpdatePlan(_ context.Context, plan *models.BnslPlan, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.plans[plan.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPlanNotFound, plan.ID)
	}
	if stored.LockVersion != plan.LockVersion {
		return fmt.Errorf("%w: plan %d", ErrConcurrentModification, plan.ID)
	}
	applyPlanChanges(&stored, changes)
	stored.LockVersion++
	s.plans[plan.ID] = stored
	plan.LockVersion++
	return nil
}

func applyPlanChanges(p *models.BnslPlan, changes map[string]any) {
	for key, val := range changes {
		switch key {
		case "status":
			p.Status = val.(string)
		case "base_price_usd":
			p.BasePriceUsd = val.(decimal.Decimal)
		case "lock_price_per_gram":
			p.LockPricePerGram = val.(decimal.Decimal)
		case "total_margin_usd":
			p.TotalMarginUsd = val.(decimal.Decimal)
		case "termination_status":
			p.TerminationStatus = val.(string)
		case "termination_penalty_usd":
			v := val.(decimal.Decimal)
			p.TerminationPenaltyUsd = &v
		case "activated_at":
			v := val.(time.Time)
			p.ActivatedAt = &v
		case "matures_at":
			v := val.(time.Time)
			p.MaturesAt = &v
		case "last_accrual_at":
			v := val.(time.Time)
			p.LastAccrualAt = &v
		case "closed_at":
			v := val.(time.Time)
			p.ClosedAt = &v
		case "termination_requested_at":
			v := val.(time.Time)
			p.TerminationRequestedAt = &v
		default:
			panic("unhandled plan change key: " + key)
		}
	}
}

func (s *memStore) CreatePayouts(_ context.Context, payouts []models.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range payouts {
		s.nextPayoutID++
		payouts[i].ID = s.nextPayoutID
		s.payouts[payouts[i].ID] = payouts[i]
	}
	return nil
}

func (s *memStore) Payouts(_ context.Context, planID uint) ([]models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(planID, func(p models.Payout) bool { return true }), nil
}

func (s *memStore) DuePayouts(_ context.Context, planID uint, asOf time.Time) ([]models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(planID, func(p models.Payout) bool {
		return p.Status == models.PayoutStatusPending && !p.ScheduledAt.After(asOf)
	}), nil
}

func (s *memStore) PendingPayouts(_ context.Context, planID uint) ([]models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(planID, func(p models.Payout) bool {
		return p.Status == models.PayoutStatusPending
	}), nil
}

func (s *memStore) selectPayouts(planID uint, keep func(models.Payout) bool) []models.Payout {
	var out []models.Payout
	for id := uint(1); id <= s.nextPayoutID; id++ {
		p, ok := s.payouts[id]
		if ok && p.PlanID == planID && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) MarkPayoutPaid(_ context.Context, payoutID uint, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok || p.Status != models.PayoutStatusPending {
		return false, nil
	}
	p.Status = models.PayoutStatusPaid
	p.PaidAt = &paidAt
	p.FailureCount = 0
	p.LastError = ""
	s.payouts[payoutID] = p
	return true, nil
}

func (s *memStore) CancelPendingPayouts(_ context.Context, planID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.payouts {
		if p.PlanID == planID && p.Status == models.PayoutStatusPending {
			p.Status = models.PayoutStatusCancelled
			s.payouts[id] = p
			n++
		}
	}
	return n, nil
}

func (s *memStore) RecordPayoutFailure(_ context.Context, payoutID uint, failures int, lastError string, escalate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return fmt.Errorf("payout %d not found", payoutID)
	}
	p.FailureCount = failures
	p.LastError = lastError
	if escalate {
		p.Status = models.PayoutStatusFailed
	}
	s.payouts[payoutID] = p
	return nil
}

func (s *memStore) PlanIDsWithDuePayouts(_ context.Context, asOf time.Time) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uint]bool)
	var ids []uint
	for _, p := range s.payouts {
		if p.Status != models.PayoutStatusPending || p.ScheduledAt.After(asOf) {
			continue
		}
		plan, ok := s.plans[p.PlanID]
		if !ok || plan.Status != models.PlanStatusActive || seen[p.PlanID] {
			continue
		}
		seen[p.PlanID] = true
		ids = append(ids, p.PlanID)
	}
	return ids, nil
}

func (s *memStore) MaturedPlanIDs(_ context.Context, asOf time.Time) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for id, p := range s.plans {
		if p.Status == models.PlanStatusActive && p.MaturesAt != nil && !asOf.Before(*p.MaturesAt) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) AuditEntries(_ context.Context, planID *uint, limit int) ([]models.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLogEntry
	for i := len(s.audits) - 1; i >= 0; i-- {
		e := s.audits[i]
		if planID != nil && e.PlanID != *planID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) Wallet() wallet.Ledger {
	return &memLedger{store: s}
}

func (s *memStore) Audit() audit.Sink {
	return &memSink{store: s}
}

func (s *memStore) auditByAction(action string) []models.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range s.audits {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) wallet(userID uint) models.WalletAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID]
}

func (s *memStore) payout(id uint) models.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payouts[id]
}

type memLedger struct {
	store *memStore
}

func (l *memLedger) DebitAvailable(_ context.Context, userID uint, grams decimal.Decimal) error {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.wallets[userID]
	if acct.AvailableGrams.LessThan(grams) {
		return fmt.Errorf("%w: have %s, need %s", wallet.ErrInsufficientGold, acct.AvailableGrams, grams)
	}
	acct.AvailableGrams = acct.AvailableGrams.Sub(grams)
	s.wallets[userID] = acct
	return nil
}

func (l *memLedger) CreditLocked(_ context.Context, userID uint, grams decimal.Decimal) error {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreditLocked {
		return fmt.Errorf("ledger unavailable")
	}
	acct := s.wallets[userID]
	acct.LockedGrams = acct.LockedGrams.Add(grams)
	s.wallets[userID] = acct
	return nil
}

func (l *memLedger) ReleaseLocked(_ context.Context, userID uint, grams decimal.Decimal) error {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.wallets[userID]
	if acct.LockedGrams.LessThan(grams) {
		return fmt.Errorf("locked balance %s below release of %s", acct.LockedGrams, grams)
	}
	acct.LockedGrams = acct.LockedGrams.Sub(grams)
	acct.AvailableGrams = acct.AvailableGrams.Add(grams)
	s.wallets[userID] = acct
	return nil
}

func (l *memLedger) CreditCash(_ context.Context, userID uint, amountUsd decimal.Decimal) error {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreditCash > 0 {
		s.failCreditCash--
		return fmt.Errorf("cash service timeout")
	}
	acct := s.wallets[userID]
	acct.CashUsd = acct.CashUsd.Add(amountUsd)
	s.wallets[userID] = acct
	return nil
}

func (l *memLedger) DebitCash(_ context.Context, userID uint, amountUsd decimal.Decimal) error {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDebitCash {
		return fmt.Errorf("cash service timeout")
	}
	acct := s.wallets[userID]
	acct.CashUsd = acct.CashUsd.Sub(amountUsd)
	s.wallets[userID] = acct
	return nil
}

func (l *memLedger) AvailableGrams(_ context.Context, userID uint) (decimal.Decimal, error) {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID].AvailableGrams, nil
}

type memSink struct {
	store *memStore
}

func (m *memSink) Append(_ context.Context, entry *models.AuditLogEntry) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint(len(s.audits) + 1)
	entry.CreatedAt = time.Now()
	s.audits = append(s.audits, *entry)
	return nil
}
