package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aurumpay/goldlock/internal/pkg/cache"
	"github.com/aurumpay/goldlock/internal/pkg/database"
)

const (
	planViewsKey     = "plan:counters:views"
	templateViewsKey = "template:counters:views"
	sweepCountersKey = "sweep:counters"
)

// AddPlanView increments the pending view counter for a plan in Redis
func AddPlanView(planID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(planID), 10)
	return cache.GetClient().HIncrBy(ctx, planViewsKey, field, 1).Err()
}

// AddTemplateView increments the pending view counter for a template in Redis
func AddTemplateView(templateID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(templateID), 10)
	return cache.GetClient().HIncrBy(ctx, templateViewsKey, field, 1).Err()
}

// AddSweepResult accumulates one sweep run's payout outcomes in Redis
func AddSweepResult(sweep string, processed, failed, escalated int) error {
	ctx := context.Background()
	pipe := cache.GetClient().Pipeline()
	for field, inc := range sweepIncrements(sweep, processed, failed, escalated) {
		pipe.HIncrBy(ctx, sweepCountersKey, field, inc)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SweepCounters returns the accumulated sweep counters
func SweepCounters() (map[string]string, error) {
	return cache.GetClient().HGetAll(context.Background(), sweepCountersKey).Result()
}

// sweepIncrements maps one sweep run onto counter hash fields. The run
// counter always increments; outcome counters only when non-zero.
func sweepIncrements(sweep string, processed, failed, escalated int) map[string]int64 {
	inc := map[string]int64{sweep + ":runs": 1}
	if processed > 0 {
		inc[sweep+":processed"] = int64(processed)
	}
	if failed > 0 {
		inc[sweep+":failed"] = int64(failed)
	}
	if escalated > 0 {
		inc[sweep+":escalated"] = int64(escalated)
	}
	return inc
}

// FlushAll flushes pending counters to the database
func FlushAll() error {
	if err := flushHashToTable(planViewsKey, "bnsl_plans", "view_count"); err != nil {
		return err
	}
	if err := flushHashToTable(templateViewsKey, "plan_templates", "view_count"); err != nil {
		return err
	}
	return nil
}

// flushHashToTable drains a Redis hash atomically and applies batched increments to a table.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	// Build batched UPDATE using CASE WHEN id THEN inc
	// Collect ids and increments; also sort ids for stable SQL
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// Compose SQL
	// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	sql := builder.String()
	db := database.GetDB()
	if err := db.Exec(sql, args...).Error; err != nil {
		return err
	}
	return nil
}
