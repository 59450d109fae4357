package bnsl

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/panjf2000/ants/v2"
)

// SweepResult summarizes one sweep across all eligible plans.
type SweepResult struct {
	Plans     int `json:"plans"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Escalated int `json:"escalated"`
}

// RunAccrualSweep ticks every active plan with a payout due at asOf.
// Plans are processed concurrently on a bounded worker pool; one plan's
// failure never aborts the sweep for the others. The sweep is idempotent:
// a second run for the same date finds nothing left to pay.
func (e *Engine) RunAccrualSweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	var res SweepResult

	ids, err := e.store.PlanIDsWithDuePayouts(ctx, asOf)
	if err != nil {
		return res, err
	}
	res.Plans = len(ids)
	if len(ids) == 0 {
		return res, nil
	}

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return res, err
	}
	defer pool.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range ids {
		planID := id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			tick, err := e.AccrualTick(ctx, planID, asOf)
			mu.Lock()
			defer mu.Unlock()
			res.Processed += tick.Paid
			res.Failed += tick.Failed
			res.Escalated += tick.Escalated
			if err != nil {
				res.Failed++
				log.Errorf("[BNSL] accrual sweep: plan %d: %v", planID, err)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			res.Failed++
			mu.Unlock()
			log.Errorf("[BNSL] accrual sweep: submitting plan %d: %v", planID, submitErr)
		}
	}
	wg.Wait()
	return res, nil
}

// RunMaturitySweep settles every active plan whose tenor ended at or
// before asOf.
func (e *Engine) RunMaturitySweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	var res SweepResult

	ids, err := e.store.MaturedPlanIDs(ctx, asOf)
	if err != nil {
		return res, err
	}
	res.Plans = len(ids)
	if len(ids) == 0 {
		return res, nil
	}

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return res, err
	}
	defer pool.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range ids {
		planID := id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			_, err := e.Mature(ctx, planID, asOf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				log.Errorf("[BNSL] maturity sweep: plan %d: %v", planID, err)
				return
			}
			res.Processed++
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			res.Failed++
			mu.Unlock()
			log.Errorf("[BNSL] maturity sweep: submitting plan %d: %v", planID, submitErr)
		}
	}
	wg.Wait()
	return res, nil
}
