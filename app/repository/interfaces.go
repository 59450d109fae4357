package repository

import (
	"github.com/aurumpay/goldlock/app/models"
	"gorm.io/gorm"
)

// TemplateRepository defines admin-facing operations on plan templates and
// their tenor variants.
type TemplateRepository interface {
	Create(template *models.PlanTemplate) error
	Update(template *models.PlanTemplate) error
	GetByID(id uint) (*models.PlanTemplate, error)
	List(status string) ([]models.PlanTemplate, error)
	AddVariant(variant *models.TemplateVariant) error
	UpdateVariant(variant *models.TemplateVariant) error
	GetVariant(id uint) (*models.TemplateVariant, error)
}

// PlanRepository defines read operations the API layer needs; all plan
// mutations go through the engine.
type PlanRepository interface {
	GetByID(id uint) (*models.BnslPlan, error)
	GetByContractID(contractID string) (*models.BnslPlan, error)
	ListByUser(userID uint) ([]models.BnslPlan, error)
	ListByStatus(status string) ([]models.BnslPlan, error)
	ListPayouts(planID uint) ([]models.Payout, error)
}

// AuditRepository reads the append-only transition log.
type AuditRepository interface {
	List(planID *uint, limit int) ([]models.AuditLogEntry, error)
}

// WalletRepository reads and provisions wallet accounts.
type WalletRepository interface {
	GetByUser(userID uint) (*models.WalletAccount, error)
	GetOrCreateByUser(userID uint) (*models.WalletAccount, error)
}

// Repositories aggregates all repository implementations.
type Repositories struct {
	Template TemplateRepository
	Plan     PlanRepository
	Audit    AuditRepository
	Wallet   WalletRepository
}

// NewRepositories creates all repositories with the given database connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Template: NewTemplateRepository(db),
		Plan:     NewPlanRepository(db),
		Audit:    NewAuditRepository(db),
		Wallet:   NewWalletRepository(db),
	}
}
