package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger errors.
var (
	ErrInsufficientGold = errors.New("insufficient available gold")
	ErrInsufficientCash = errors.New("insufficient cash balance")
	ErrNoAccount        = errors.New("wallet account not found")
)

// Ledger is the wallet boundary the plan engine mutates through. All gram
// movements conserve gold: DebitAvailable+CreditLocked move gold into a
// plan lock, ReleaseLocked moves it back. Margin and penalties move USD
// on the cash balance only.
type Ledger interface {
	DebitAvailable(ctx context.Context, userID uint, grams decimal.Decimal) error
	CreditLocked(ctx context.Context, userID uint, grams decimal.Decimal) error
	ReleaseLocked(ctx context.Context, userID uint, grams decimal.Decimal) error
	CreditCash(ctx context.Context, userID uint, amountUsd decimal.Decimal) error
	DebitCash(ctx context.Context, userID uint, amountUsd decimal.Decimal) error
	AvailableGrams(ctx context.Context, userID uint) (decimal.Decimal, error)
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger creates a GORM-backed ledger. Bind it to a transaction handle
// when balance movements must commit atomically with other writes.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) account(ctx context.Context, userID uint, forUpdate bool) (*models.WalletAccount, error) {
	q := l.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acct models.WalletAccount
	if err := q.Where("user_id = ?", userID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNoAccount, userID)
		}
		return nil, err
	}
	return &acct, nil
}

func (l *gormLedger) DebitAvailable(ctx context.Context, userID uint, grams decimal.Decimal) error {
	if grams.Sign() <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", grams)
	}
	acct, err := l.account(ctx, userID, true)
	if err != nil {
		return err
	}
	if acct.AvailableGrams.LessThan(grams) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientGold, acct.AvailableGrams, grams)
	}
	return l.db.WithContext(ctx).Model(acct).
		Update("available_grams", acct.AvailableGrams.Sub(grams)).Error
}

func (l *gormLedger) CreditLocked(ctx context.Context, userID uint, grams decimal.Decimal) error {
	if grams.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive, got %s", grams)
	}
	acct, err := l.account(ctx, userID, true)
	if err != nil {
		return err
	}
	return l.db.WithContext(ctx).Model(acct).
		Update("locked_grams", acct.LockedGrams.Add(grams)).Error
}

func (l *gormLedger) ReleaseLocked(ctx context.Context, userID uint, grams decimal.Decimal) error {
	if grams.Sign() <= 0 {
		return fmt.Errorf("release amount must be positive, got %s", grams)
	}
	acct, err := l.account(ctx, userID, true)
	if err != nil {
		return err
	}
	if acct.LockedGrams.LessThan(grams) {
		// Locked balance can never undershoot a release; this indicates a
		// consistency fault, not a user error.
		return fmt.Errorf("locked balance %s below release of %s for user %d", acct.LockedGrams, grams, userID)
	}
	return l.db.WithContext(ctx).Model(acct).Updates(map[string]any{
		"locked_grams":    acct.LockedGrams.Sub(grams),
		"available_grams": acct.AvailableGrams.Add(grams),
	}).Error
}

func (l *gormLedger) CreditCash(ctx context.Context, userID uint, amountUsd decimal.Decimal) error {
	if amountUsd.Sign() < 0 {
		return fmt.Errorf("cash credit must be non-negative, got %s", amountUsd)
	}
	acct, err := l.account(ctx, userID, true)
	if err != nil {
		return err
	}
	return l.db.WithContext(ctx).Model(acct).
		Update("cash_usd", acct.CashUsd.Add(amountUsd)).Error
}

func (l *gormLedger) DebitCash(ctx context.Context, userID uint, amountUsd decimal.Decimal) error {
	if amountUsd.Sign() < 0 {
		return fmt.Errorf("cash debit must be non-negative, got %s", amountUsd)
	}
	acct, err := l.account(ctx, userID, true)
	if err != nil {
		return err
	}
	// Penalties may push the cash balance negative; the balance is a net
	// position against the platform, not a prepaid stored value.
	return l.db.WithContext(ctx).Model(acct).
		Update("cash_usd", acct.CashUsd.Sub(amountUsd)).Error
}

func (l *gormLedger) AvailableGrams(ctx context.Context, userID uint) (decimal.Decimal, error) {
	acct, err := l.account(ctx, userID, false)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.AvailableGrams, nil
}
