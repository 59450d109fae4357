package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletAccount holds a user's gold and cash balances. AvailableGrams is
// freely spendable gold; LockedGrams is gold committed to active BNSL
// plans; CashUsd receives margin payouts and pays termination penalties.
type WalletAccount struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	AvailableGrams decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"available_grams"`
	LockedGrams    decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"locked_grams"`
	CashUsd        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"cash_usd"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}
