package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/schedkit/schedkit/pkg/registry"
)

// The execution tracker: the scheduler's queue.StatusReporter
// implementation. Both callbacks arrive from the queue worker's completion
// path, so they never return errors and never panic; anything unexpected is
// logged and swallowed.

// ExecutionStarted marks a pending execution as running.
func (s *Scheduler) ExecutionStarted(ctx context.Context, executionID uuid.UUID) {
	exec, err := s.repo.GetExecution(ctx, executionID)
	if err != nil {
		s.logger.Warn("status update for unknown execution",
			slog.String("execution_id", executionID.String()),
			slog.String("error", err.Error()))
		return
	}
	if exec.Status != StatusPending {
		return
	}
	exec.Status = StatusRunning
	if err := s.repo.UpdateExecution(ctx, exec); err != nil {
		s.logger.Warn("failed to mark execution running",
			slog.String("execution_id", executionID.String()),
			slog.String("error", err.Error()))
	}
}

// ExecutionFinished records the terminal outcome of an execution: status,
// completion time, duration, result summary, and error message.
func (s *Scheduler) ExecutionFinished(ctx context.Context, executionID uuid.UUID, res *registry.Result, execErr error) {
	status := StatusSuccess
	if execErr != nil || (res != nil && !res.Success) {
		status = StatusFailed
	}
	s.UpdateExecutionStatus(ctx, executionID, status, res, execErr)
}

// UpdateExecutionStatus moves an execution to a terminal status exactly
// once. Unknown ids and repeated terminal updates are logged and ignored;
// this method must never propagate a failure into the queue's completion
// hook.
func (s *Scheduler) UpdateExecutionStatus(ctx context.Context, executionID uuid.UUID, status ExecutionStatus, res *registry.Result, execErr error) {
	exec, err := s.repo.GetExecution(ctx, executionID)
	if err != nil {
		s.logger.Warn("status update for unknown execution",
			slog.String("execution_id", executionID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return
	}
	if exec.Status.Terminal() {
		s.logger.Warn("ignoring repeated terminal status update",
			slog.String("execution_id", executionID.String()),
			slog.String("current", string(exec.Status)),
			slog.String("requested", string(status)))
		return
	}

	now := time.Now()
	durationMS := now.Sub(exec.StartedAt).Milliseconds()
	exec.Status = status
	exec.CompletedAt = &now
	exec.DurationMS = &durationMS

	if execErr != nil {
		msg := execErr.Error()
		exec.Error = &msg
	}
	if res != nil {
		exec.UsersAffected = res.UsersAffected
		summary, err := json.Marshal(struct {
			Success       bool           `json:"success"`
			UsersAffected int            `json:"users_affected"`
			Summary       string         `json:"summary,omitempty"`
			Details       map[string]any `json:"details,omitempty"`
		}{res.Success, res.UsersAffected, res.Summary, res.Details})
		if err == nil {
			exec.Result = summary
		}
	}

	if err := s.repo.UpdateExecution(ctx, exec); err != nil {
		s.logger.Error("failed to record execution outcome",
			slog.String("execution_id", executionID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("execution finished",
		slog.String("execution_id", executionID.String()),
		slog.String("status", string(status)),
		slog.Int64("duration_ms", durationMS))
}

// failExecution marks an execution failed before it ever reached the queue
// worker (target resolution or submission failed). Logs only; the caller
// returns the original error.
func (s *Scheduler) failExecution(ctx context.Context, exec *Execution, cause error) {
	s.UpdateExecutionStatus(ctx, exec.ID, StatusFailed, nil, cause)
}
