package audit

import (
	"context"
	"encoding/json"

	"github.com/aurumpay/goldlock/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Sink receives append-only audit entries for every engine transition.
type Sink interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
}

type gormSink struct {
	db *gorm.DB
}

// NewSink creates a GORM-backed audit sink.
func NewSink(db *gorm.DB) Sink {
	return &gormSink{db: db}
}

func (s *gormSink) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// Detail marshals transition details into the entry's JSON column. Audit
// writing must never block a transition on a marshal failure.
func Detail(v any) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warnf("[Audit] failed to marshal detail: %v", err)
		return ""
	}
	return string(raw)
}
