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

// AccrualSweepJob pays every due margin payout across all active plans.
type AccrualSweepJob struct {
	engine *bnsl.Engine
}

func NewAccrualSweepJob(engine *bnsl.Engine) *AccrualSweepJob {
	return &AccrualSweepJob{engine: engine}
}

func (j *AccrualSweepJob) GetName() string {
	return "accrual_sweep"
}

func (j *AccrualSweepJob) GetSchedule() gocron.JobDefinition {
	minutes, err := strconv.Atoi(env.GetEnv("ACCRUAL_SWEEP_INTERVAL_MINUTES", "60"))
	if err != nil || minutes < 1 {
		minutes = 60
	}
	return gocron.DurationJob(time.Duration(minutes) * time.Minute)
}

func (j *AccrualSweepJob) Execute() {
	ctx := context.Background()

	res, err := j.engine.RunAccrualSweep(ctx, time.Now())
	if err != nil {
		log.Errorf("[Scheduler] Accrual sweep failed: %v", err)
		return
	}
	if err := counter.AddSweepResult("accrual", res.Processed, res.Failed, res.Escalated); err != nil {
		log.Debugf("[Scheduler] Recording accrual sweep counters: %v", err)
	}
	if res.Plans == 0 {
		log.Debug("[Scheduler] Accrual sweep: no payouts due")
		return
	}
	log.Infof("[Scheduler] Accrual sweep: %d plans, %d payouts paid, %d failed, %d escalated",
		res.Plans, res.Processed, res.Failed, res.Escalated)
}
