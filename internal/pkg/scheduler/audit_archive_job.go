package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aurumpay/goldlock/internal/pkg/s3archive"
)

// AuditArchiveJob exports the previous day's audit entries to S3 once a
// day, shortly after midnight.
type AuditArchiveJob struct {
	archiver *s3archive.Archiver
}

func NewAuditArchiveJob(archiver *s3archive.Archiver) *AuditArchiveJob {
	return &AuditArchiveJob{archiver: archiver}
}

func (j *AuditArchiveJob) GetName() string {
	return "audit_archive"
}

func (j *AuditArchiveJob) GetSchedule() gocron.JobDefinition {
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 30, 0)))
}

func (j *AuditArchiveJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.archiver.ArchiveYesterday(ctx); err != nil {
		log.Errorf("[Scheduler] Audit archive failed: %v", err)
	}
}
