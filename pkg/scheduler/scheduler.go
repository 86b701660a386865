package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the mapping from job records to live cron triggers and is
// the single entry point that turns "a job should run" into a queued,
// tracked execution. It also implements queue.StatusReporter, closing the
// execution lifecycle when the queue worker reports completion.
type Scheduler struct {
	repo     Repository
	catalog  Catalog
	q        JobQueue
	resolver TargetResolver
	logger   *slog.Logger

	mu          sync.Mutex
	cron        *cron.Cron
	entries     map[string]cron.EntryID
	initialized bool
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler. All collaborators are injected; none are global.
func New(repo Repository, catalog Catalog, q JobQueue, resolver TargetResolver, opts ...Option) (*Scheduler, error) {
	switch {
	case repo == nil:
		return nil, ErrRepositoryNil
	case catalog == nil:
		return nil, ErrCatalogNil
	case q == nil:
		return nil, ErrQueueNil
	case resolver == nil:
		return nil, ErrResolverNil
	}

	s := &Scheduler{
		repo:     repo,
		catalog:  catalog,
		q:        q,
		resolver: resolver,
		logger:   slog.Default(),
		// Standard 5-field cron specs; per-job timezones use the CRON_TZ=
		// spec prefix.
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize boots the queue manager, synchronizes the persisted catalog
// with the statically known job definitions, and starts cron triggers for
// every enabled job. Safe to call once at process start; calling it twice is
// a no-op.
func (s *Scheduler) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	s.q.SetStatusReporter(s)
	if err := s.q.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize queue manager: %w", err)
	}

	if err := s.syncCatalog(ctx); err != nil {
		return fmt.Errorf("sync job catalog: %w", err)
	}

	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	scheduled := 0
	for _, rec := range jobs {
		if !rec.Enabled {
			continue
		}
		if !s.catalog.Has(rec.JobKey) {
			s.logger.Warn("job has no registered handler, leaving it unscheduled",
				slog.String("job_name", rec.Name),
				slog.String("job_key", rec.JobKey))
			continue
		}
		if s.startJobCronLocked(rec) {
			scheduled++
		}
	}

	s.cron.Start()
	s.initialized = true
	s.logger.Info("scheduler started",
		slog.Int("jobs", len(jobs)),
		slog.Int("scheduled", scheduled))
	return nil
}

// syncCatalog reconciles persisted job records with the static catalog.
// Missing records are created from the definition defaults; existing records
// get their display metadata refreshed while operator-edited schedule,
// enabled flag, timezone, and config are preserved across deploys.
func (s *Scheduler) syncCatalog(ctx context.Context) error {
	now := time.Now()
	for _, def := range s.catalog.Defaults() {
		rec, err := s.repo.GetJobByName(ctx, def.Name)
		switch {
		case errors.Is(err, ErrJobNotFound):
			var cfg json.RawMessage
			if len(def.DefaultConfig) > 0 {
				cfg, err = json.Marshal(def.DefaultConfig)
				if err != nil {
					return fmt.Errorf("marshal default config for %q: %w", def.Name, err)
				}
			}
			rec = &JobRecord{
				ID:          uuid.New(),
				Name:        def.Name,
				JobKey:      def.Name,
				JobType:     JobTypeCoded,
				DisplayName: def.DisplayName,
				Description: def.Description,
				Schedule:    def.DefaultSchedule,
				Timezone:    def.DefaultTimezone,
				Enabled:     true,
				Config:      cfg,
				NextRunAt:   s.CalculateNextRun(def.DefaultSchedule, def.DefaultTimezone),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.repo.CreateJob(ctx, rec); err != nil {
				return fmt.Errorf("create job %q: %w", def.Name, err)
			}
			s.logger.Info("job record created from catalog",
				slog.String("job_name", def.Name),
				slog.String("schedule", def.DefaultSchedule))

		case err != nil:
			return fmt.Errorf("get job %q: %w", def.Name, err)

		default:
			rec.DisplayName = def.DisplayName
			rec.Description = def.Description
			rec.JobKey = def.Name
			rec.JobType = JobTypeCoded
			rec.UpdatedAt = now
			if err := s.repo.UpdateJob(ctx, rec); err != nil {
				return fmt.Errorf("refresh job %q: %w", def.Name, err)
			}
		}
	}
	return nil
}

// Shutdown stops every live cron trigger and shuts down the queue manager.
// Safe to call even if Initialize never ran.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	stopCtx := s.cron.Stop()
	s.entries = make(map[string]cron.EntryID)
	s.initialized = false
	s.mu.Unlock()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.logger.Warn("shutdown timed out waiting for running cron callbacks")
	}

	if err := s.q.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown queue manager: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}
