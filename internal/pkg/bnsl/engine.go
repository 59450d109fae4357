package bnsl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/aurumpay/goldlock/internal/pkg/audit"
	"github.com/aurumpay/goldlock/internal/pkg/goldprice"
	"github.com/aurumpay/goldlock/internal/pkg/wallet"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine owns the BNSL plan lifecycle: creation, activation at a locked
// valuation, margin accrual, early termination and maturity settlement.
// Transitions on one plan are serialized through the store's versioned
// writes; transitions on different plans run independently.
type Engine struct {
	store  Store
	oracle goldprice.Oracle

	// now is swapped in tests for deterministic schedules.
	now func() time.Time
	// sweep parallelism bound
	workers int
}

// NewEngine creates a plan engine. workers bounds sweep parallelism; values
// below 1 fall back to a single worker.
func NewEngine(store Store, oracle goldprice.Oracle, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:   store,
		oracle:  oracle,
		now:     time.Now,
		workers: workers,
	}
}

// CreatePlanInput carries a user's plan request. MarginAnnualPct overrides
// the variant's rate when set (admin tooling); it must still respect the
// template's hard bounds.
type CreatePlanInput struct {
	TemplateID      uint
	TenorMonths     int
	GoldGrams       decimal.Decimal
	UserID          uint
	MarginAnnualPct *decimal.Decimal
	Actor           string
}

// CreatePlan validates a plan request against its template and the user's
// available balance and records a draft. The wallet is not touched until
// activation.
func (e *Engine) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.BnslPlan, error) {
	template, err := e.store.Template(ctx, in.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %d", ErrTemplateInactive, in.TemplateID)
		}
		return nil, err
	}
	if !template.IsActive() {
		return nil, fmt.Errorf("%w: template %d has status %s", ErrTemplateInactive, template.ID, template.Status)
	}

	variant, err := SelectVariant(template, in.TenorMonths)
	if err != nil {
		return nil, err
	}
	step, err := monthsPerPeriod(template.PayoutFrequency)
	if err != nil {
		return nil, err
	}
	if in.TenorMonths%step != 0 {
		return nil, fmt.Errorf("%w: %d months not divisible by %s period", ErrInvalidTenor, in.TenorMonths, template.PayoutFrequency)
	}
	if err := ValidateGoldAmount(template, in.GoldGrams); err != nil {
		return nil, err
	}

	rate := variant.MarginAnnualPct
	if in.MarginAnnualPct != nil {
		rate = *in.MarginAnnualPct
		if err := ValidateMarginRate(template, rate); err != nil {
			return nil, err
		}
	}

	available, err := e.store.Wallet().AvailableGrams(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if available.LessThan(in.GoldGrams) {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, available, in.GoldGrams)
	}

	now := e.now()
	plan := &models.BnslPlan{
		ContractID:      NewContractID(now),
		UserID:          in.UserID,
		TemplateID:      template.ID,
		VariantID:       variant.ID,
		GoldGrams:       in.GoldGrams,
		MarginAnnualPct: rate,
		TenorMonths:     in.TenorMonths,
		PayoutFrequency: template.PayoutFrequency,
		TotalMarginUsd:  decimal.Zero,
		Status:          models.PlanStatusDraft,
	}

	err = e.store.Transact(ctx, func(tx Store) error {
		if err := tx.CreatePlan(ctx, plan); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:      plan.ID,
			Actor:       actorOrUser(in.Actor, in.UserID),
			Action:      models.AuditActionPlanCreated,
			AfterStatus: models.PlanStatusDraft,
			DetailJSON: detailJSON(map[string]any{
				"contract_id":  plan.ContractID,
				"template_id":  template.ID,
				"tenor_months": in.TenorMonths,
				"gold_grams":   in.GoldGrams,
				"margin_pct":   rate,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ActivatePlan locks the draft's gold at the oracle's current valuation,
// moves the grams from the available to the locked bucket and generates
// the full payout schedule. The price is read exactly once; everything
// else happens in one transaction, so a failed leg leaves no partial
// debit behind.
func (e *Engine) ActivatePlan(ctx context.Context, planID uint) (*models.BnslPlan, error) {
	price, err := e.oracle.CurrentPricePerGram(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading gold price: %w", err)
	}

	var plan *models.BnslPlan
	err = e.store.Transact(ctx, func(tx Store) error {
		var err error
		plan, err = tx.Plan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusDraft {
			return fmt.Errorf("%w: plan %d has status %s", ErrNotDraft, planID, plan.Status)
		}

		now := e.now()
		base := plan.GoldGrams.Mul(price).RoundBank(2)
		maturesAt := now.AddDate(0, plan.TenorMonths, 0)

		if err := tx.Wallet().DebitAvailable(ctx, plan.UserID, plan.GoldGrams); err != nil {
			return mapLedgerErr(err)
		}
		if err := tx.Wallet().CreditLocked(ctx, plan.UserID, plan.GoldGrams); err != nil {
			// Debit succeeded, credit failed: only the enclosing rollback
			// keeps gold conserved. Surface as fatal, never retry blindly.
			return fmt.Errorf("%w: debited %s grams without locking, plan %d: %v",
				ErrFatalInconsistency, plan.GoldGrams, planID, err)
		}

		schedule, err := BuildSchedule(base, plan.MarginAnnualPct, plan.TenorMonths, plan.PayoutFrequency, now)
		if err != nil {
			return err
		}
		for i := range schedule {
			schedule[i].PlanID = plan.ID
		}
		if err := tx.CreatePayouts(ctx, schedule); err != nil {
			return err
		}

		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"status":              models.PlanStatusActive,
			"base_price_usd":      base,
			"lock_price_per_gram": price,
			"activated_at":        now,
			"matures_at":          maturesAt,
		}); err != nil {
			return err
		}
		plan.Status = models.PlanStatusActive
		plan.BasePriceUsd = base
		plan.LockPricePerGram = price
		plan.ActivatedAt = &now
		plan.MaturesAt = &maturesAt

		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        fmt.Sprintf("user:%d", plan.UserID),
			Action:       models.AuditActionPlanActivated,
			BeforeStatus: models.PlanStatusDraft,
			AfterStatus:  models.PlanStatusActive,
			DetailJSON: detailJSON(map[string]any{
				"lock_price_per_gram": price,
				"base_price_usd":      base,
				"payout_count":        len(schedule),
				"matures_at":          maturesAt,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// TickResult summarizes one accrual tick on one plan.
type TickResult struct {
	Paid      int
	Failed    int
	Escalated int
}

// AccrualTick disburses every payout of the plan that is due at asOf and
// still pending. Paid payouts are skipped, so repeating a tick for the
// same date is a no-op. A wallet credit failure leaves the payout pending
// for the next sweep; after three consecutive failures the payout is
// marked failed and escalated to admin review.
func (e *Engine) AccrualTick(ctx context.Context, planID uint, asOf time.Time) (TickResult, error) {
	var res TickResult

	plan, err := e.store.Plan(ctx, planID)
	if err != nil {
		return res, err
	}
	switch plan.Status {
	case models.PlanStatusActive:
	case models.PlanStatusTerminationRequested:
		// Margin due before the request was filed is still owed; the
		// settle path ticks here so approval never swallows it.
	default:
		// Terminated, matured or draft plans accrue nothing; keeping this
		// a no-op keeps sweep retries harmless.
		return res, nil
	}

	due, err := e.store.DuePayouts(ctx, planID, asOf)
	if err != nil {
		return res, err
	}

	for i := range due {
		payout := due[i]
		err := e.payOne(ctx, plan, &payout, asOf)
		switch {
		case err == nil:
			res.Paid++
		case errors.Is(err, ErrConcurrentModification):
			return res, err
		case isLedgerFailure(err):
			res.Failed++
			if e.recordCreditFailure(ctx, plan, &payout, err) {
				res.Escalated++
			}
		default:
			return res, err
		}
	}
	return res, nil
}

// payOne settles a single payout in its own transaction: flip to paid,
// credit the user's cash balance, bump the plan's accrued margin.
func (e *Engine) payOne(ctx context.Context, plan *models.BnslPlan, payout *models.Payout, asOf time.Time) error {
	return e.store.Transact(ctx, func(tx Store) error {
		flipped, err := tx.MarkPayoutPaid(ctx, payout.ID, asOf)
		if err != nil {
			return err
		}
		if !flipped {
			// Another tick already paid it.
			return nil
		}
		if err := tx.Wallet().CreditCash(ctx, plan.UserID, payout.AmountUsd); err != nil {
			return ledgerFailure{err: err}
		}
		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"total_margin_usd": plan.TotalMarginUsd.Add(payout.AmountUsd),
			"last_accrual_at":  asOf,
		}); err != nil {
			return err
		}
		plan.TotalMarginUsd = plan.TotalMarginUsd.Add(payout.AmountUsd)
		plan.LastAccrualAt = &asOf

		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        "system:accrual",
			Action:       models.AuditActionPayoutPaid,
			BeforeStatus: plan.Status,
			AfterStatus:  plan.Status,
			DetailJSON: detailJSON(map[string]any{
				"payout_id":        payout.ID,
				"sequence":         payout.Sequence,
				"amount_usd":       payout.AmountUsd,
				"total_margin_usd": plan.TotalMarginUsd,
			}),
		})
	})
}

// recordCreditFailure bumps the payout's failure counter outside the
// rolled-back payment transaction and reports whether it escalated.
func (e *Engine) recordCreditFailure(ctx context.Context, plan *models.BnslPlan, payout *models.Payout, cause error) bool {
	failures := payout.FailureCount + 1
	escalate := failures >= models.PayoutFailureEscalation

	if err := e.store.RecordPayoutFailure(ctx, payout.ID, failures, cause.Error(), escalate); err != nil {
		log.Errorf("[BNSL] plan %d payout %d: recording credit failure: %v", plan.ID, payout.ID, err)
		return false
	}
	log.Warnf("[BNSL] plan %d payout %d: wallet credit failed (%d/%d): %v",
		plan.ID, payout.ID, failures, models.PayoutFailureEscalation, cause)

	if !escalate {
		return false
	}
	entry := &models.AuditLogEntry{
		PlanID:       plan.ID,
		Actor:        "system:accrual",
		Action:       models.AuditActionPayoutEscalated,
		BeforeStatus: plan.Status,
		AfterStatus:  plan.Status,
		Warning:      true,
		DetailJSON: detailJSON(map[string]any{
			"payout_id":  payout.ID,
			"sequence":   payout.Sequence,
			"amount_usd": payout.AmountUsd,
			"failures":   failures,
			"last_error": cause.Error(),
		}),
	}
	if err := e.store.Audit().Append(ctx, entry); err != nil {
		log.Errorf("[BNSL] plan %d payout %d: writing escalation audit entry: %v", plan.ID, payout.ID, err)
	}
	return true
}

// RequestEarlyTermination moves an active plan into the termination-review
// state and records the provisional penalty for display. Balances are not
// touched until an admin approves.
func (e *Engine) RequestEarlyTermination(ctx context.Context, planID, requesterID uint) (*models.BnslPlan, error) {
	var plan *models.BnslPlan
	err := e.store.Transact(ctx, func(tx Store) error {
		var err error
		plan, err = tx.Plan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusActive {
			return fmt.Errorf("%w: plan %d has status %s", ErrNotActive, planID, plan.Status)
		}

		template, err := tx.Template(ctx, plan.TemplateID)
		if err != nil {
			return err
		}
		breakdown := ComputeEarlyTermination(plan.BasePriceUsd, plan.TotalMarginUsd, plan.GoldGrams, template.EarlyTerminationFeePct)

		now := e.now()
		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"status":                   models.PlanStatusTerminationRequested,
			"termination_status":       models.TerminationRequested,
			"termination_requested_at": now,
			"termination_penalty_usd":  breakdown.PenaltyUsd,
		}); err != nil {
			return err
		}
		plan.Status = models.PlanStatusTerminationRequested
		plan.TerminationStatus = models.TerminationRequested
		plan.TerminationRequestedAt = &now
		plan.TerminationPenaltyUsd = &breakdown.PenaltyUsd

		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        fmt.Sprintf("user:%d", requesterID),
			Action:       models.AuditActionTerminationRequest,
			BeforeStatus: models.PlanStatusActive,
			AfterStatus:  models.PlanStatusTerminationRequested,
			DetailJSON:   detailJSON(breakdown),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ResolveEarlyTermination approves or rejects a pending termination
// request. Rejection returns the plan to active accrual. Approval settles
// immediately: margin due but not yet disbursed is paid out first, the
// remaining schedule is cancelled, the locked gold is released in full and
// the penalty is debited in USD against the locked base price.
//
// Settlement runs in a single transaction; a collaborator failure inside
// it rolls everything back and surfaces as fatal rather than retrying.
func (e *Engine) ResolveEarlyTermination(ctx context.Context, planID uint, approve bool, adminID uint, notes string) (*models.BnslPlan, error) {
	plan, err := e.store.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusTerminationRequested {
		return nil, fmt.Errorf("%w: plan %d has status %s", ErrNoTerminationRequested, planID, plan.Status)
	}

	if !approve {
		return e.rejectTermination(ctx, plan, adminID, notes)
	}

	// Disburse margin already due so settlement never double-counts it:
	// after this tick, accrued-to-date margin equals the paid payout total.
	if _, err := e.AccrualTick(ctx, planID, e.now()); err != nil {
		return nil, err
	}

	actor := fmt.Sprintf("admin:%d", adminID)
	err = e.store.Transact(ctx, func(tx Store) error {
		var err error
		plan, err = tx.Plan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusTerminationRequested {
			return fmt.Errorf("%w: plan %d", ErrConcurrentModification, planID)
		}
		template, err := tx.Template(ctx, plan.TemplateID)
		if err != nil {
			return err
		}

		breakdown := ComputeEarlyTermination(plan.BasePriceUsd, plan.TotalMarginUsd, plan.GoldGrams, template.EarlyTerminationFeePct)

		cancelled, err := tx.CancelPendingPayouts(ctx, planID)
		if err != nil {
			return err
		}
		if err := tx.Wallet().ReleaseLocked(ctx, plan.UserID, plan.GoldGrams); err != nil {
			return fmt.Errorf("%w: releasing %s grams for plan %d: %v",
				ErrFatalInconsistency, plan.GoldGrams, planID, err)
		}
		if breakdown.PenaltyUsd.Sign() > 0 {
			if err := tx.Wallet().DebitCash(ctx, plan.UserID, breakdown.PenaltyUsd); err != nil {
				return fmt.Errorf("%w: debiting penalty %s for plan %d: %v",
					ErrFatalInconsistency, breakdown.PenaltyUsd, planID, err)
			}
		}

		now := e.now()
		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"status":                  models.PlanStatusTerminated,
			"termination_status":      models.TerminationApproved,
			"termination_penalty_usd": breakdown.PenaltyUsd,
			"closed_at":               now,
		}); err != nil {
			return err
		}
		plan.Status = models.PlanStatusTerminated
		plan.TerminationStatus = models.TerminationApproved
		plan.TerminationPenaltyUsd = &breakdown.PenaltyUsd
		plan.ClosedAt = &now

		if err := tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        actor,
			Action:       models.AuditActionTerminationApproved,
			BeforeStatus: models.PlanStatusTerminationRequested,
			AfterStatus:  models.PlanStatusTerminated,
			DetailJSON:   detailJSON(map[string]any{"notes": notes}),
		}); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        actor,
			Action:       models.AuditActionPlanSettled,
			BeforeStatus: models.PlanStatusTerminationRequested,
			AfterStatus:  models.PlanStatusTerminated,
			Warning:      breakdown.PenaltyClamped,
			DetailJSON: detailJSON(map[string]any{
				"breakdown":         breakdown,
				"cancelled_payouts": cancelled,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (e *Engine) rejectTermination(ctx context.Context, plan *models.BnslPlan, adminID uint, notes string) (*models.BnslPlan, error) {
	err := e.store.Transact(ctx, func(tx Store) error {
		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"status":             models.PlanStatusActive,
			"termination_status": models.TerminationRejected,
		}); err != nil {
			return err
		}
		plan.Status = models.PlanStatusActive
		plan.TerminationStatus = models.TerminationRejected

		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        fmt.Sprintf("admin:%d", adminID),
			Action:       models.AuditActionTerminationRejected,
			BeforeStatus: models.PlanStatusTerminationRequested,
			AfterStatus:  models.PlanStatusActive,
			DetailJSON:   detailJSON(map[string]any{"notes": notes}),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Mature settles a plan that has reached the end of its tenor: any payout
// still pending is force-paid (scheduling edge cases must not leave a
// completed plan with dangling payouts), the locked gold is released in
// full with no penalty, and the plan completes.
func (e *Engine) Mature(ctx context.Context, planID uint, asOf time.Time) (*models.BnslPlan, error) {
	var plan *models.BnslPlan
	err := e.store.Transact(ctx, func(tx Store) error {
		var err error
		plan, err = tx.Plan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusActive {
			return fmt.Errorf("%w: plan %d has status %s", ErrNotActive, planID, plan.Status)
		}
		if !plan.IsMature(asOf) {
			return fmt.Errorf("%w: plan %d matures at %s", ErrNotMature, planID, plan.MaturesAt)
		}

		pending, err := tx.PendingPayouts(ctx, planID)
		if err != nil {
			return err
		}
		margin := plan.TotalMarginUsd
		for i := range pending {
			payout := pending[i]
			flipped, err := tx.MarkPayoutPaid(ctx, payout.ID, asOf)
			if err != nil {
				return err
			}
			if !flipped {
				continue
			}
			if err := tx.Wallet().CreditCash(ctx, plan.UserID, payout.AmountUsd); err != nil {
				return fmt.Errorf("%w: crediting final payout %d for plan %d: %v",
					ErrFatalInconsistency, payout.ID, planID, err)
			}
			margin = margin.Add(payout.AmountUsd)
		}

		if err := tx.Wallet().ReleaseLocked(ctx, plan.UserID, plan.GoldGrams); err != nil {
			return fmt.Errorf("%w: releasing %s grams for plan %d: %v",
				ErrFatalInconsistency, plan.GoldGrams, planID, err)
		}

		if err := tx.UpdatePlan(ctx, plan, map[string]any{
			"status":           models.PlanStatusCompleted,
			"total_margin_usd": margin,
			"last_accrual_at":  asOf,
			"closed_at":        asOf,
		}); err != nil {
			return err
		}
		plan.Status = models.PlanStatusCompleted
		plan.TotalMarginUsd = margin
		plan.LastAccrualAt = &asOf
		plan.ClosedAt = &asOf

		if err := tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        "system:maturity",
			Action:       models.AuditActionPlanMatured,
			BeforeStatus: models.PlanStatusActive,
			AfterStatus:  models.PlanStatusMatured,
			DetailJSON:   detailJSON(map[string]any{"forced_payouts": len(pending)}),
		}); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, &models.AuditLogEntry{
			PlanID:       plan.ID,
			Actor:        "system:maturity",
			Action:       models.AuditActionPlanSettled,
			BeforeStatus: models.PlanStatusMatured,
			AfterStatus:  models.PlanStatusCompleted,
			DetailJSON: detailJSON(map[string]any{
				"gold_grams_released": plan.GoldGrams,
				"total_margin_usd":    margin,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlan returns a plan by id.
func (e *Engine) GetPlan(ctx context.Context, planID uint) (*models.BnslPlan, error) {
	return e.store.Plan(ctx, planID)
}

// GetPlanByContractID returns a plan by its human-readable contract id.
func (e *Engine) GetPlanByContractID(ctx context.Context, contractID string) (*models.BnslPlan, error) {
	return e.store.PlanByContractID(ctx, contractID)
}

// ListPayouts returns a plan's full payout schedule.
func (e *Engine) ListPayouts(ctx context.Context, planID uint) ([]models.Payout, error) {
	return e.store.Payouts(ctx, planID)
}

// ListAuditLog returns audit entries, newest first, optionally scoped to
// one plan.
func (e *Engine) ListAuditLog(ctx context.Context, planID *uint, limit int) ([]models.AuditLogEntry, error) {
	return e.store.AuditEntries(ctx, planID, limit)
}

// ledgerFailure wraps a transient wallet credit failure so the tick can
// tell it apart from state and storage errors.
type ledgerFailure struct {
	err error
}

func (f ledgerFailure) Error() string { return f.err.Error() }
func (f ledgerFailure) Unwrap() error { return f.err }

func isLedgerFailure(err error) bool {
	var f ledgerFailure
	return errors.As(err, &f)
}

func detailJSON(v any) string {
	return audit.Detail(v)
}

func actorOrUser(actor string, userID uint) string {
	if actor != "" {
		return actor
	}
	return fmt.Sprintf("user:%d", userID)
}

func mapLedgerErr(err error) error {
	if errors.Is(err, wallet.ErrInsufficientGold) {
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}
	return err
}
