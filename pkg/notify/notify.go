package notify

import (
	"context"
	"log/slog"
	"time"
)

// Notification is a single message a job run wants delivered to one user.
// The engine never renders or delivers notifications itself; it only hands
// them to a Sink.
type Notification struct {
	UserID    int64          `json:"user_id"`
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Meta carries the run that produced a batch of notifications.
type Meta struct {
	JobName     string `json:"job_name"`
	ExecutionID string `json:"execution_id"`
}

// Sink receives the notifications a successful job run produced.
// Implementations deliver them through whatever channel the host application
// uses (chat transport, email, ...). Errors returned by a Sink are logged by
// the caller and never fail the execution.
type Sink interface {
	Handle(ctx context.Context, notifs []Notification, meta Meta) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, notifs []Notification, meta Meta) error

func (f SinkFunc) Handle(ctx context.Context, notifs []Notification, meta Meta) error {
	return f(ctx, notifs, meta)
}

// MultiSink fans a batch out to several sinks, best effort.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// MultiSinkOption configures a MultiSink.
type MultiSinkOption func(*MultiSink)

// WithMultiSinkLogger sets the logger used to report per-sink failures.
func WithMultiSinkLogger(logger *slog.Logger) MultiSinkOption {
	return func(m *MultiSink) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMultiSink creates a sink that delivers to every given sink in order.
func NewMultiSink(sinks []Sink, opts ...MultiSinkOption) *MultiSink {
	m := &MultiSink{
		sinks:  sinks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle delivers the batch to all configured sinks. A failing sink is logged
// and skipped; Handle itself never returns an error.
func (m *MultiSink) Handle(ctx context.Context, notifs []Notification, meta Meta) error {
	for i, s := range m.sinks {
		if err := s.Handle(ctx, notifs, meta); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "notification sink failed",
				slog.String("job_name", meta.JobName),
				slog.String("execution_id", meta.ExecutionID),
				slog.Int("sink_index", i),
				slog.Int("notifications", len(notifs)),
				slog.String("error", err.Error()),
			)
			continue
		}
	}
	return nil
}

// NopSink discards all notifications. Useful for tests and for hosts that
// have no delivery channel configured.
type NopSink struct{}

func (NopSink) Handle(ctx context.Context, notifs []Notification, meta Meta) error {
	return nil
}
