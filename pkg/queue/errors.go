package queue

import "errors"

var (
	// ErrRegistryNil is returned when a nil job registry is provided.
	ErrRegistryNil = errors.New("job registry cannot be nil")

	// ErrNotInitialized is returned when a job is submitted before Initialize.
	ErrNotInitialized = errors.New("queue manager not initialized")
)
