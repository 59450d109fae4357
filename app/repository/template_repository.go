package repository

import (
	"github.com/aurumpay/goldlock/app/models"
	"gorm.io/gorm"
)

// templateRepository implements TemplateRepository using GORM
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository instance
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *models.PlanTemplate) error {
	return r.db.Create(template).Error
}

func (r *templateRepository) Update(template *models.PlanTemplate) error {
	return r.db.Save(template).Error
}

func (r *templateRepository) GetByID(id uint) (*models.PlanTemplate, error) {
	var template models.PlanTemplate
	err := r.db.Preload("Variants").First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) List(status string) ([]models.PlanTemplate, error) {
	q := r.db.Preload("Variants").Order("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var templates []models.PlanTemplate
	err := q.Find(&templates).Error
	return templates, err
}

func (r *templateRepository) AddVariant(variant *models.TemplateVariant) error {
	return r.db.Create(variant).Error
}

func (r *templateRepository) UpdateVariant(variant *models.TemplateVariant) error {
	return r.db.Save(variant).Error
}

func (r *templateRepository) GetVariant(id uint) (*models.TemplateVariant, error) {
	var variant models.TemplateVariant
	err := r.db.First(&variant, id).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}
