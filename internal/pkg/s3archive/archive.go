package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/aurumpay/goldlock/app/models"
)

// Archiver exports daily audit log batches to the archive bucket.
// Rows stay in the database; the archive is an append-only offsite copy.
type Archiver struct {
	db     *gorm.DB
	client *Client
	config *Config
}

func NewArchiver(db *gorm.DB, client *Client, cfg *Config) *Archiver {
	return &Archiver{db: db, client: client, config: cfg}
}

// ArchiveDay exports every audit entry created on the given day as one
// JSONL object. Already-archived days are skipped so the job can rerun.
func (a *Archiver) ArchiveDay(ctx context.Context, day time.Time) error {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	objectKey := a.config.GetObjectKey(start)
	exists, err := a.client.ObjectExists(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("failed to check archive object: %w", err)
	}
	if exists {
		log.Debugf("[S3Archive] Skipping %s, already archived", objectKey)
		return nil
	}

	var entries []models.AuditLogEntry
	err = a.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to load audit entries: %w", err)
	}
	if len(entries) == 0 {
		log.Debugf("[S3Archive] No audit entries for %s", start.Format("2006-01-02"))
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("failed to encode audit entry %d: %w", entries[i].ID, err)
		}
	}

	result, err := a.client.Upload(ctx, objectKey, buf.Bytes())
	if err != nil {
		return err
	}

	log.Infof("[S3Archive] Archived %d audit entries to s3://%s/%s",
		len(entries), result.BucketName, result.ObjectKey)
	return nil
}

// ArchiveYesterday archives the previous calendar day. Intended for a
// daily scheduled job running shortly after midnight.
func (a *Archiver) ArchiveYesterday(ctx context.Context) error {
	return a.ArchiveDay(ctx, time.Now().AddDate(0, 0, -1))
}
