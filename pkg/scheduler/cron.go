package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronSpec builds the robfig/cron spec string for a record, binding the
// job's IANA timezone with the CRON_TZ prefix.
func cronSpec(schedule, timezone string) string {
	schedule = strings.TrimSpace(schedule)
	if tz := strings.TrimSpace(timezone); tz != "" {
		return "CRON_TZ=" + tz + " " + schedule
	}
	return schedule
}

// startJobCronLocked installs (or replaces) the cron trigger for a record.
// Any prior trigger for the same name is removed first, so a restart is
// idempotent and two live triggers for one name can never coexist. Returns
// false if the schedule cannot be parsed; the job is then left unscheduled.
// Caller must hold s.mu.
func (s *Scheduler) startJobCronLocked(rec *JobRecord) bool {
	if id, ok := s.entries[rec.Name]; ok {
		s.cron.Remove(id)
		delete(s.entries, rec.Name)
	}

	name := rec.Name
	id, err := s.cron.AddFunc(cronSpec(rec.Schedule, rec.Timezone), func() {
		s.fireCron(name)
	})
	if err != nil {
		s.logger.Warn("invalid schedule, job left unscheduled",
			slog.String("job_name", rec.Name),
			slog.String("schedule", rec.Schedule),
			slog.String("timezone", rec.Timezone),
			slog.String("error", err.Error()))
		return false
	}

	s.entries[rec.Name] = id
	s.logger.Debug("cron trigger started",
		slog.String("job_name", rec.Name),
		slog.String("schedule", rec.Schedule),
		slog.String("timezone", rec.Timezone))
	return true
}

// stopJobCronLocked removes the trigger for a name, if any. Caller must hold
// s.mu.
func (s *Scheduler) stopJobCronLocked(name string) {
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		s.logger.Debug("cron trigger stopped", slog.String("job_name", name))
	}
}

// fireCron is the trigger callback. It only queues work; the actual run
// happens inside the queue worker, never on the timer goroutine.
func (s *Scheduler) fireCron(name string) {
	if _, err := s.ExecuteJob(context.Background(), name); err != nil {
		s.logger.Error("scheduled execution failed to queue",
			slog.String("job_name", name),
			slog.String("error", err.Error()))
	}
}

// Scheduled reports whether a live cron trigger exists for the job name.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

// CalculateNextRun computes the next fire time of a schedule in the given
// timezone. It returns nil if the expression cannot be parsed; the error is
// logged and the job simply never gets a next-run timestamp.
func (s *Scheduler) CalculateNextRun(schedule, timezone string) *time.Time {
	sched, err := cron.ParseStandard(cronSpec(schedule, timezone))
	if err != nil {
		s.logger.Error("cannot parse schedule",
			slog.String("schedule", schedule),
			slog.String("timezone", timezone),
			slog.String("error", err.Error()))
		return nil
	}
	next := sched.Next(time.Now())
	if next.IsZero() {
		return nil
	}
	return &next
}
