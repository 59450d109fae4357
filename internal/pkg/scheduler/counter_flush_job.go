package scheduler

import (
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aurumpay/goldlock/internal/pkg/env"
	"github.com/aurumpay/goldlock/internal/pkg/metrics/counter"
)

// CounterFlushJob drains the pending Redis view counters to the database.
type CounterFlushJob struct{}

func NewCounterFlushJob() *CounterFlushJob {
	return &CounterFlushJob{}
}

func (j *CounterFlushJob) GetName() string {
	return "counter_flush"
}

func (j *CounterFlushJob) GetSchedule() gocron.JobDefinition {
	seconds, err := strconv.Atoi(env.GetEnv("COUNTER_FLUSH_INTERVAL_SECONDS", "60"))
	if err != nil || seconds < 1 {
		seconds = 60
	}
	return gocron.DurationJob(time.Duration(seconds) * time.Second)
}

func (j *CounterFlushJob) Execute() {
	if err := counter.FlushAll(); err != nil {
		log.Errorf("[Scheduler] Counter flush failed: %v", err)
	}
}
