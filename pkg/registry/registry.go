package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps stable job keys to executable handlers. It is safe for
// concurrent use; registration normally happens once at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and execution events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handler under its definition name.
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return ErrHandlerNil
	}
	def := handler.Definition()
	if def.Name == "" {
		return ErrHandlerNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrHandlerAlreadyRegistered, def.Name)
	}
	r.handlers[def.Name] = handler

	r.logger.Info("registered job handler",
		slog.String("job_key", def.Name),
		slog.String("schedule", def.DefaultSchedule))
	return nil
}

// MustRegister registers a set of handlers and panics on the first failure.
// Intended for static wiring at process start.
func (r *Registry) MustRegister(handlers ...Handler) {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
}

// Has reports whether a handler is registered for the key.
func (r *Registry) Has(jobKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[jobKey]
	return ok
}

// Execute runs the handler registered for jobKey. A nil handler result with a
// nil error is normalized to an empty successful Result.
func (r *Registry) Execute(ctx context.Context, jobKey string, run ExecContext) (*Result, error) {
	r.mu.RLock()
	handler, ok := r.handlers[jobKey]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHandlerNotFound, jobKey)
	}

	res, err := handler.Execute(ctx, run)
	if err != nil {
		return res, err
	}
	if res == nil {
		res = &Result{Success: true}
	}
	return res, nil
}

// Defaults returns the static catalog of every registered job, sorted by name
// so catalog syncs are deterministic.
func (r *Registry) Defaults() []JobDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]JobDefinition, 0, len(r.handlers))
	for _, h := range r.handlers {
		defs = append(defs, h.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
