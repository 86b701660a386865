package registry

import "errors"

var (
	// ErrHandlerNil is returned when registering a nil handler.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrHandlerNameEmpty is returned when a handler's definition has no name.
	ErrHandlerNameEmpty = errors.New("handler definition name cannot be empty")

	// ErrHandlerAlreadyRegistered is returned on duplicate registration.
	ErrHandlerAlreadyRegistered = errors.New("handler already registered")

	// ErrHandlerNotFound is returned when no handler exists for a job key.
	ErrHandlerNotFound = errors.New("no handler registered for job key")
)
