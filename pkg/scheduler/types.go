package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/schedkit/schedkit/pkg/queue"
	"github.com/schedkit/schedkit/pkg/registry"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// JobType distinguishes statically coded jobs from future user-authored
// kinds.
type JobType string

const JobTypeCoded JobType = "coded"

// ExecutionStatus is the lifecycle state of one job run.
type ExecutionStatus string

const (
	StatusPending ExecutionStatus = "pending"
	StatusRunning ExecutionStatus = "running"
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// JobRecord is the persisted, operator-editable state of one job. Name is
// globally unique and is the join key for the in-memory cron trigger map.
// Created once per known job name on first catalog sync; re-syncs refresh
// display metadata only and never overwrite operator-edited Schedule,
// Enabled, Timezone, or Config.
type JobRecord struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	JobKey      string          `json:"job_key"`
	JobType     JobType         `json:"job_type"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Schedule    string          `json:"schedule"` // 5-field cron expression
	Timezone    string          `json:"timezone"` // IANA name
	Enabled     bool            `json:"enabled"`
	Config      json.RawMessage `json:"config,omitempty"`
	LastRunAt   *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time      `json:"next_run_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Execution tracks one run attempt from submission to terminal outcome.
// Queue-level retries report into the same execution; intermediate failed
// attempts are visible in logs only.
type Execution struct {
	ID            uuid.UUID       `json:"id"`
	JobID         uuid.UUID       `json:"job_id"`
	Status        ExecutionStatus `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	DurationMS    *int64          `json:"duration_ms,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	UsersAffected int             `json:"users_affected"`
	Error         *string         `json:"error,omitempty"`
}

// ConfigUpdate is a partial update of a job record. Nil fields are left
// untouched.
type ConfigUpdate struct {
	Schedule *string
	Timezone *string
	Enabled  *bool
	Config   map[string]any
}

// Repository is the persistent-store contract the scheduler requires.
type Repository interface {
	CreateJob(ctx context.Context, rec *JobRecord) error
	GetJobByName(ctx context.Context, name string) (*JobRecord, error)
	ListJobs(ctx context.Context) ([]*JobRecord, error)
	UpdateJob(ctx context.Context, rec *JobRecord) error

	CreateExecution(ctx context.Context, exec *Execution) error
	GetExecution(ctx context.Context, id uuid.UUID) (*Execution, error)
	UpdateExecution(ctx context.Context, exec *Execution) error
}

// Catalog is the static job catalog contract. *registry.Registry satisfies
// it.
type Catalog interface {
	Defaults() []registry.JobDefinition
	Has(jobKey string) bool
}

// JobQueue is the queue-manager contract. *queue.Manager satisfies it.
type JobQueue interface {
	Initialize(ctx context.Context) error
	SetStatusReporter(r queue.StatusReporter)
	AddJob(ctx context.Context, item queue.WorkItem, opts ...queue.AddOption) (queue.Handle, error)
	Shutdown(ctx context.Context) error
}

// TargetResolver computes the recipient set for a job. *targeting.Resolver
// satisfies it.
type TargetResolver interface {
	Resolve(ctx context.Context, jobID uuid.UUID) (targeting.Targets, error)
}
