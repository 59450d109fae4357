package scheduler

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aurumpay/goldlock/internal/pkg/bnsl"
	"github.com/aurumpay/goldlock/internal/pkg/s3archive"
)

// Manager owns the background jobs of the plan engine: the accrual and
// maturity sweeps, the counter flush and the audit archive.
type Manager struct {
	scheduler gocron.Scheduler
	engine    *bnsl.Engine
	archiver  *s3archive.Archiver
}

// NewManager creates a manager with an idle scheduler. The archiver may
// be nil when the S3 archive is disabled.
func NewManager(engine *bnsl.Engine, archiver *s3archive.Archiver) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		engine:    engine,
		archiver:  archiver,
	}, nil
}

// Start registers all jobs and starts the scheduler.
func Start(engine *bnsl.Engine, archiver *s3archive.Archiver) (*Manager, error) {
	manager, err := NewManager(engine, archiver)
	if err != nil {
		return nil, err
	}

	manager.RegisterJobs()
	manager.scheduler.Start()

	log.Info("[Scheduler] Job manager started")
	return manager, nil
}

// RegisterJobs registers all background jobs.
func (m *Manager) RegisterJobs() {
	m.register(NewAccrualSweepJob(m.engine))
	m.register(NewMaturitySweepJob(m.engine))
	m.register(NewCounterFlushJob())
	if m.archiver != nil {
		m.register(NewAuditArchiveJob(m.archiver))
	}
}

// Job is one schedulable unit of background work.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Errorf("[Scheduler] Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		log.Errorf("[Scheduler] Failed to shutdown: %v", err)
	}
	log.Info("[Scheduler] Job manager stopped")
}
