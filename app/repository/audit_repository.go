package repository

import (
	"github.com/aurumpay/goldlock/app/models"
	"gorm.io/gorm"
)

// auditRepository implements AuditRepository using GORM
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository instance
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) List(planID *uint, limit int) ([]models.AuditLogEntry, error) {
	q := r.db.Order("id DESC")
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
