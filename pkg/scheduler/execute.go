package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/schedkit/schedkit/pkg/queue"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// ExecuteJob runs a job by name: it creates a pending execution record,
// resolves the recipient set, submits a work item to the queue, and advances
// the record's last/next-run timestamps. It is the single code path for both
// cron-fired and manually triggered runs.
//
// The enabled flag is deliberately not checked here: disabling a job only
// removes its cron trigger, it does not block explicit triggers.
func (s *Scheduler) ExecuteJob(ctx context.Context, jobName string) (uuid.UUID, error) {
	rec, err := s.repo.GetJobByName(ctx, jobName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get job %q: %w", jobName, err)
	}

	now := time.Now()
	exec := &Execution{
		ID:        uuid.New(),
		JobID:     rec.ID,
		Status:    StatusPending,
		StartedAt: now,
	}
	if err := s.repo.CreateExecution(ctx, exec); err != nil {
		return uuid.Nil, fmt.Errorf("create execution for %q: %w", jobName, err)
	}

	targets, err := s.resolver.Resolve(ctx, rec.ID)
	if err != nil {
		s.failExecution(ctx, exec, err)
		return uuid.Nil, fmt.Errorf("resolve targets for %q: %w", jobName, err)
	}

	item := queue.WorkItem{
		JobID:       rec.ID,
		JobName:     rec.Name,
		JobKey:      rec.JobKey,
		ExecutionID: exec.ID,
		Config:      rec.Config,
		Targets:     targets,
		StartedAt:   now,
	}
	handle, err := s.q.AddJob(ctx, item)
	if err != nil {
		s.failExecution(ctx, exec, err)
		return uuid.Nil, fmt.Errorf("queue job %q: %w", jobName, err)
	}

	rec.LastRunAt = &now
	rec.NextRunAt = s.CalculateNextRun(rec.Schedule, rec.Timezone)
	rec.UpdatedAt = now
	if err := s.repo.UpdateJob(ctx, rec); err != nil {
		// The run is already queued; a bookkeeping failure must not undo it.
		s.logger.Warn("failed to update job run timestamps",
			slog.String("job_name", jobName),
			slog.String("error", err.Error()))
	}

	s.logger.Info("job execution queued",
		slog.String("job_name", jobName),
		slog.String("execution_id", exec.ID.String()),
		slog.Int("targets", len(targets.FinalUserIDs)),
		slog.Bool("durable", handle.Durable))
	return exec.ID, nil
}

// TriggerJob is the manual trigger entry point for administrative surfaces.
// It is a thin alias of ExecuteJob.
func (s *Scheduler) TriggerJob(ctx context.Context, jobName string) (uuid.UUID, error) {
	return s.ExecuteJob(ctx, jobName)
}

// ResolveTargets computes the current recipient set of a job without
// queueing anything.
func (s *Scheduler) ResolveTargets(ctx context.Context, jobID uuid.UUID) (targeting.Targets, error) {
	return s.resolver.Resolve(ctx, jobID)
}

// UpdateJobConfig applies a partial update to a job record, recomputes its
// next-run timestamp, and reconciles the cron trigger with the new state. A
// stale trigger is never left running against an old schedule. Updates that
// would make the schedule unparsable are rejected with ErrInvalidSchedule.
func (s *Scheduler) UpdateJobConfig(ctx context.Context, jobName string, upd ConfigUpdate) error {
	rec, err := s.repo.GetJobByName(ctx, jobName)
	if err != nil {
		return fmt.Errorf("get job %q: %w", jobName, err)
	}

	if upd.Schedule != nil {
		rec.Schedule = *upd.Schedule
	}
	if upd.Timezone != nil {
		rec.Timezone = *upd.Timezone
	}
	if upd.Schedule != nil || upd.Timezone != nil {
		if _, err := cron.ParseStandard(cronSpec(rec.Schedule, rec.Timezone)); err != nil {
			return fmt.Errorf("%w: %q in %q: %v", ErrInvalidSchedule, rec.Schedule, rec.Timezone, err)
		}
	}
	if upd.Enabled != nil {
		rec.Enabled = *upd.Enabled
	}
	if upd.Config != nil {
		cfg, err := json.Marshal(upd.Config)
		if err != nil {
			return fmt.Errorf("marshal config for %q: %w", jobName, err)
		}
		rec.Config = cfg
	}

	rec.NextRunAt = s.CalculateNextRun(rec.Schedule, rec.Timezone)
	rec.UpdatedAt = time.Now()
	if err := s.repo.UpdateJob(ctx, rec); err != nil {
		return fmt.Errorf("update job %q: %w", jobName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	if rec.Enabled && s.catalog.Has(rec.JobKey) {
		s.startJobCronLocked(rec)
	} else {
		s.stopJobCronLocked(rec.Name)
	}
	return nil
}
