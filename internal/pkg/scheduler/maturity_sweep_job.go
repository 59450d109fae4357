package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aurumpay/goldlock/internal/pkg/bnsl"
	"github.com/aurumpay/goldlock/internal/pkg/env"
	"github.com/aurumpay/goldlock/internal/pkg/metrics/counter"
)

// MaturitySweepJob settles every active plan whose tenor has ended.
type MaturitySweepJob struct {
	engine *bnsl.Engine
}

func NewMaturitySweepJob(engine *bnsl.Engine) *MaturitySweepJob {
	return &MaturitySweepJob{engine: engine}
}

func (j *MaturitySweepJob) GetName() string {
	return "maturity_sweep"
}

func (j *MaturitySweepJob) GetSchedule() gocron.JobDefinition {
	hours, err := strconv.Atoi(env.GetEnv("MATURITY_SWEEP_INTERVAL_HOURS", "6"))
	if err != nil || hours < 1 {
		hours = 6
	}
	return gocron.DurationJob(time.Duration(hours) * time.Hour)
}

func (j *MaturitySweepJob) Execute() {
	ctx := context.Background()

	res, err := j.engine.RunMaturitySweep(ctx, time.Now())
	if err != nil {
		log.Errorf("[Scheduler] Maturity sweep failed: %v", err)
		return
	}
	if err := counter.AddSweepResult("maturity", res.Processed, res.Failed, res.Escalated); err != nil {
		log.Debugf("[Scheduler] Recording maturity sweep counters: %v", err)
	}
	if res.Plans == 0 {
		log.Debug("[Scheduler] Maturity sweep: no plans matured")
		return
	}
	log.Infof("[Scheduler] Maturity sweep: %d plans, %d settled, %d failed",
		res.Plans, res.Processed, res.Failed)
}
