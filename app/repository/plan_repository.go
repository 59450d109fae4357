package repository

import (
	"github.com/aurumpay/goldlock/app/models"
	"gorm.io/gorm"
)

// planRepository implements PlanRepository using GORM
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetByID(id uint) (*models.BnslPlan, error) {
	var plan models.BnslPlan
	err := r.db.Preload("Template").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetByContractID(contractID string) (*models.BnslPlan, error) {
	var plan models.BnslPlan
	err := r.db.Preload("Template").Where("contract_id = ?", contractID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListByUser(userID uint) ([]models.BnslPlan, error) {
	var plans []models.BnslPlan
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) ListByStatus(status string) ([]models.BnslPlan, error) {
	var plans []models.BnslPlan
	err := r.db.Where("status = ?", status).Order("id DESC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) ListPayouts(planID uint) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.Where("plan_id = ?", planID).Order("sequence ASC").Find(&payouts).Error
	return payouts, err
}
