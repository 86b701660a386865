// Package registry holds the static catalog of coded jobs.
//
// A Handler couples a JobDefinition (stable key, display metadata, default
// schedule and config) with the code that performs one run. The scheduler
// seeds persisted job records from Defaults() on startup, and the queue
// worker dispatches dequeued work items through Execute.
//
// Registration is expected to happen once during process wiring:
//
//	reg := registry.New()
//	reg.MustRegister(&WeeklyCheckJob{}, &DigestJob{})
//
// The registry never looks inside a handler; failures bubble up as ordinary
// errors and are recorded on the execution by the caller.
package registry
