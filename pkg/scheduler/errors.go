package scheduler

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrCatalogNil is returned when a nil job catalog is provided.
	ErrCatalogNil = errors.New("job catalog cannot be nil")

	// ErrQueueNil is returned when a nil job queue is provided.
	ErrQueueNil = errors.New("job queue cannot be nil")

	// ErrResolverNil is returned when a nil target resolver is provided.
	ErrResolverNil = errors.New("target resolver cannot be nil")

	// ErrJobNotFound is returned when no job record exists for a name.
	// Storage implementations return it from GetJobByName.
	ErrJobNotFound = errors.New("job not found")

	// ErrExecutionNotFound is returned when no execution exists for an id.
	// Storage implementations return it from GetExecution.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrInvalidSchedule is returned when a config update carries a cron
	// expression or timezone that cannot be parsed. An already-persisted
	// unparsable schedule is never fatal; the job is just left unscheduled.
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
