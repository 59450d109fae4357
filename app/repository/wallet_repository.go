package repository

import (
	"errors"

	"github.com/aurumpay/goldlock/app/models"
	"gorm.io/gorm"
)

// walletRepository implements WalletRepository using GORM
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetByUser(userID uint) (*models.WalletAccount, error) {
	var account models.WalletAccount
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *walletRepository) GetOrCreateByUser(userID uint) (*models.WalletAccount, error) {
	account, err := r.GetByUser(userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = &models.WalletAccount{UserID: userID}
	if err := r.db.Create(account).Error; err != nil {
		// Lost a create race; the existing row wins.
		if existing, gerr := r.GetByUser(userID); gerr == nil {
			return existing, nil
		}
		return nil, err
	}
	return account, nil
}
