package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schedkit/schedkit/pkg/notify"
	"github.com/schedkit/schedkit/pkg/registry"
)

// dequeueLoop pulls ready work items from the backend and dispatches them
// under the concurrency semaphore.
func (m *Manager) dequeueLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if m.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.PullTimeout):
			}
			continue
		}

		m.mu.Lock()
		client := m.client
		m.mu.Unlock()
		if client == nil {
			return
		}

		vals, err := client.BRPop(ctx, m.cfg.PullTimeout, queueKey).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			m.logger.Warn("queue pull failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.PullTimeout):
			}
			continue
		}
		if len(vals) != 2 {
			continue
		}

		var item WorkItem
		if err := json.Unmarshal([]byte(vals[1]), &item); err != nil {
			m.logger.Error("dropping undecodable work item", slog.String("error", err.Error()))
			continue
		}

		select {
		case <-ctx.Done():
			// Give the item back so it is not lost across shutdown.
			_ = client.RPush(context.Background(), queueKey, vals[1]).Err()
			return
		case m.sem <- struct{}{}:
		}

		m.wg.Add(1)
		go func(it WorkItem) {
			defer m.wg.Done()
			defer func() { <-m.sem }()
			m.process(ctx, it)
		}(item)
	}
}

// promoteLoop moves delayed items whose ready time has passed onto the ready
// list.
func (m *Manager) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PullTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.promoteDue(ctx)
		}
	}
}

func (m *Manager) promoteDue(ctx context.Context) {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return
	}

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	vals, err := client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf", Max: now, Offset: 0, Count: 100,
	}).Result()
	if err != nil || len(vals) == 0 {
		return
	}

	for _, v := range vals {
		// ZRem guards against another worker promoting the same member.
		removed, err := client.ZRem(ctx, delayedKey, v).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := client.LPush(ctx, queueKey, v).Err(); err != nil {
			m.logger.Error("failed to promote delayed work item", slog.String("error", err.Error()))
		}
	}
}

// process executes one attempt of a work item: handler lookup, execution,
// retry scheduling, notification forwarding, and the terminal status report.
func (m *Manager) process(ctx context.Context, item WorkItem) {
	// Detach from the run context so graceful shutdown lets in-flight
	// attempts and their status reports complete.
	ctx = context.WithoutCancel(ctx)

	m.active.Add(1)
	defer m.active.Add(-1)

	m.reportStarted(ctx, item)

	run := registry.ExecContext{
		JobID:       item.JobID,
		JobName:     item.JobName,
		JobKey:      item.JobKey,
		ExecutionID: item.ExecutionID,
		StartedAt:   item.StartedAt,
		Targets:     item.Targets,
	}
	if len(item.Config) > 0 {
		if err := json.Unmarshal(item.Config, &run.Config); err != nil {
			m.logger.Warn("work item config is not valid JSON, handler gets an empty map",
				slog.String("job_name", item.JobName),
				slog.String("error", err.Error()))
		}
	}

	if !m.reg.Has(item.JobKey) {
		// Retrying cannot help until the handler is deployed, so fail the
		// execution immediately.
		err := fmt.Errorf("%w: %q", registry.ErrHandlerNotFound, item.JobKey)
		m.logger.Error("no handler for dequeued work item",
			slog.String("job_name", item.JobName),
			slog.String("job_key", item.JobKey))
		m.finish(ctx, item, nil, err)
		return
	}

	start := time.Now()
	res, err := m.execute(ctx, item.JobKey, run)
	duration := time.Since(start)

	if err != nil {
		item.Attempts++
		if item.Attempts < item.MaxAttempts {
			delay := m.backoffDelay(item.Attempts)
			m.logger.Warn("work item failed, retrying",
				slog.String("job_name", item.JobName),
				slog.String("execution_id", item.ExecutionID.String()),
				slog.Int("attempt", item.Attempts),
				slog.Int("max_attempts", item.MaxAttempts),
				slog.Duration("retry_in", delay),
				slog.String("error", err.Error()))
			m.requeue(ctx, item, delay)
			return
		}

		m.logger.Error("work item failed permanently",
			slog.String("job_name", item.JobName),
			slog.String("execution_id", item.ExecutionID.String()),
			slog.Int("attempts", item.Attempts),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		m.incrCounter(ctx, "failed")
		m.finish(ctx, item, res, err)
		return
	}

	m.logger.Info("work item completed",
		slog.String("job_name", item.JobName),
		slog.String("execution_id", item.ExecutionID.String()),
		slog.Int("users_affected", res.UsersAffected),
		slog.Duration("duration", duration))
	m.incrCounter(ctx, "completed")

	if res.Success {
		m.forwardNotifications(ctx, item, res.Notifications)
	}
	m.finish(ctx, item, res, nil)
}

// execute invokes the registry handler, converting panics into errors so a
// misbehaving handler cannot take the worker down.
func (m *Manager) execute(ctx context.Context, jobKey string, run registry.ExecContext) (res *registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job handler: %v", r)
		}
	}()
	return m.reg.Execute(ctx, jobKey, run)
}

// requeue schedules a retry attempt: durably via the delayed set when
// online, by timer when offline.
func (m *Manager) requeue(ctx context.Context, item WorkItem, delay time.Duration) {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client != nil && !m.offline.Load() {
		payload, err := json.Marshal(item)
		if err == nil {
			readyAt := time.Now().Add(delay)
			err = client.ZAdd(ctx, delayedKey, redis.Z{
				Score:  float64(readyAt.UnixMilli()),
				Member: payload,
			}).Err()
		}
		if err == nil {
			return
		}
		m.logger.Error("durable retry scheduling failed, retrying in memory",
			slog.String("job_name", item.JobName),
			slog.String("error", err.Error()))
	}
	m.dispatchLocal(item, delay)
}

// backoffDelay returns the exponential retry delay for the given attempt
// count (1 = first retry).
func (m *Manager) backoffDelay(attempt int) time.Duration {
	delay := m.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.cfg.BackoffMax {
			return m.cfg.BackoffMax
		}
	}
	if delay > m.cfg.BackoffMax {
		delay = m.cfg.BackoffMax
	}
	return delay
}

// forwardNotifications hands produced notifications to the configured sink.
// Sink failures are logged and never affect the execution outcome.
func (m *Manager) forwardNotifications(ctx context.Context, item WorkItem, notifs []notify.Notification) {
	if len(notifs) == 0 {
		return
	}
	if m.sink == nil {
		m.logger.Warn("job produced notifications but no sink is configured",
			slog.String("job_name", item.JobName),
			slog.Int("notifications", len(notifs)))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("notification sink panicked",
				slog.String("job_name", item.JobName),
				slog.Any("panic", r))
		}
	}()
	meta := notify.Meta{JobName: item.JobName, ExecutionID: item.ExecutionID.String()}
	if err := m.sink.Handle(ctx, notifs, meta); err != nil {
		m.logger.Error("notification sink failed",
			slog.String("job_name", item.JobName),
			slog.Int("notifications", len(notifs)),
			slog.String("error", err.Error()))
	}
}

func (m *Manager) reportStarted(ctx context.Context, item WorkItem) {
	m.mu.Lock()
	reporter := m.reporter
	m.mu.Unlock()
	if reporter == nil {
		return
	}
	reporter.ExecutionStarted(ctx, item.ExecutionID)
}

func (m *Manager) finish(ctx context.Context, item WorkItem, res *registry.Result, execErr error) {
	m.mu.Lock()
	reporter := m.reporter
	m.mu.Unlock()
	if reporter == nil {
		return
	}
	reporter.ExecutionFinished(ctx, item.ExecutionID, res, execErr)
}

func (m *Manager) incrCounter(ctx context.Context, field string) {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil || m.offline.Load() {
		return
	}
	if err := client.HIncrBy(ctx, statsKey, field, 1).Err(); err != nil {
		m.logger.Debug("failed to update queue counter",
			slog.String("field", field),
			slog.String("error", err.Error()))
	}
}
