package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/schedkit/schedkit/pkg/registry"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// Priority orders work items within the queue. High-priority items jump the
// line; everything else is FIFO.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// WorkItem is the payload handed to the queue backend. It is immutable once
// enqueued, except for the Attempts counter maintained by the worker.
type WorkItem struct {
	ID          uuid.UUID         `json:"id"`
	JobID       uuid.UUID         `json:"job_id"`
	JobName     string            `json:"job_name"`
	JobKey      string            `json:"job_key"`
	ExecutionID uuid.UUID         `json:"execution_id"`
	Config      json.RawMessage   `json:"config,omitempty"`
	Targets     targeting.Targets `json:"targets"`
	StartedAt   time.Time         `json:"started_at"` // submission time
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	Priority    Priority          `json:"priority,omitempty"`
}

// Handle identifies a submitted work item. Durable is false for items
// accepted in offline mode, which live only in process memory.
type Handle struct {
	ID      uuid.UUID
	Durable bool
}

// Stats is an aggregate snapshot of the queue. All counts are zero in
// offline mode.
type Stats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
}

// Registry is the narrow job-registry contract the worker needs.
// *registry.Registry satisfies it.
type Registry interface {
	Has(jobKey string) bool
	Execute(ctx context.Context, jobKey string, run registry.ExecContext) (*registry.Result, error)
}

// StatusReporter receives execution lifecycle callbacks from the worker.
// The scheduler's execution tracker implements it. Implementations must not
// panic and must tolerate unknown execution ids; the worker treats both
// callbacks as fire-and-forget.
type StatusReporter interface {
	// ExecutionStarted is invoked when a work item begins an attempt.
	ExecutionStarted(ctx context.Context, executionID uuid.UUID)

	// ExecutionFinished is invoked exactly once per execution, after the
	// final attempt: with the handler result on success, or with the last
	// error once the retry budget is exhausted.
	ExecutionFinished(ctx context.Context, executionID uuid.UUID, res *registry.Result, execErr error)
}
