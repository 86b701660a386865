package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/schedkit/schedkit/pkg/notify"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// JobDefinition is the static description of a coded job: its stable key,
// display metadata, and scheduling defaults. Definitions are supplied by
// handlers at registration time, are immutable for the process lifetime, and
// are never persisted as code — only their defaults seed the persisted job
// records on first sync.
type JobDefinition struct {
	Name            string         `json:"name"`
	DisplayName     string         `json:"display_name"`
	Description     string         `json:"description"`
	DefaultSchedule string         `json:"default_schedule"` // 5-field cron expression
	DefaultTimezone string         `json:"default_timezone"` // IANA name, e.g. "Asia/Tehran"
	DefaultConfig   map[string]any `json:"default_config,omitempty"`
}

// ExecContext is the per-run context handed to a handler. Config is the
// job record's parsed opaque config map; Targets is the recipient set
// resolved at submission time.
type ExecContext struct {
	JobID       uuid.UUID         `json:"job_id"`
	JobName     string            `json:"job_name"`
	JobKey      string            `json:"job_key"`
	ExecutionID uuid.UUID         `json:"execution_id"`
	Config      map[string]any    `json:"config,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	Targets     targeting.Targets `json:"targets"`
}

// Result is what a handler reports back after a run.
type Result struct {
	Success       bool                  `json:"success"`
	UsersAffected int                   `json:"users_affected"`
	Summary       string                `json:"summary,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
	Details       map[string]any        `json:"details,omitempty"`
}

// Handler is an executable job. The engine never inspects handler internals;
// it only invokes Execute and records the outcome.
type Handler interface {
	// Definition returns the job's static catalog entry. Definition().Name is
	// the stable lookup key.
	Definition() JobDefinition

	// Execute performs one run. A nil result with a nil error is treated as
	// an empty successful result.
	Execute(ctx context.Context, run ExecContext) (*Result, error)
}
