package queue

import (
	"log/slog"
	"time"

	"github.com/schedkit/schedkit/pkg/notify"
)

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSink sets the notification sink invoked after successful runs.
func WithSink(sink notify.Sink) ManagerOption {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithStatusReporter sets the execution status reporter. The scheduler also
// wires itself in via SetStatusReporter during its own initialization.
func WithStatusReporter(r StatusReporter) ManagerOption {
	return func(m *Manager) {
		m.reporter = r
	}
}

// AddOption is a functional option for a single AddJob call.
type AddOption func(*addOptions)

type addOptions struct {
	delay    time.Duration
	priority Priority
}

// WithDelay submits the item for execution no earlier than d from now.
func WithDelay(d time.Duration) AddOption {
	return func(o *addOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithPriority sets the item's queue priority.
func WithPriority(p Priority) AddOption {
	return func(o *addOptions) {
		if p == PriorityNormal || p == PriorityHigh {
			o.priority = p
		}
	}
}
