// Package schedkit is a recurring-job scheduling and reliable-execution
// engine for Go services.
//
// It turns a static catalog of coded job handlers into operator-editable
// scheduled jobs: cron triggers with per-job IANA timezones, a Redis-backed
// durable queue with bounded concurrency and exponential-backoff retries,
// rule-based recipient targeting, and per-run execution tracking.
//
// Key Features:
//
//   - Cron scheduling with per-job timezone support
//   - Durable FIFO/priority queue on Redis, with graceful offline degradation
//   - Catalog sync that preserves operator-edited schedules and config
//   - Include/exclude/pack targeting rules with broadcast fallback
//   - Execution lifecycle tracking (pending, running, success, failed)
//   - Notification fan-out to pluggable sinks after successful runs
//
// Basic Usage:
//
//	reg := registry.New()
//	reg.MustRegister(&DigestJob{}, &CleanupJob{})
//
//	store := storage.NewMemory() // or storage.NewPostgres(pool)
//	resolver, _ := targeting.NewResolver(store, store)
//
//	mgr, _ := queue.NewManager(queueCfg, reg, queue.WithSink(sink))
//	sched, _ := scheduler.New(store, reg, mgr, resolver)
//
//	if err := sched.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer sched.Shutdown(ctx)
//
// Manual triggers and configuration changes go through the same scheduler:
//
//	execID, err := sched.TriggerJob(ctx, "daily_digest")
//	err = sched.UpdateJobConfig(ctx, "daily_digest", scheduler.ConfigUpdate{Schedule: &newSpec})
//
// All components are dependency-injected and carry no global state; see the
// pkg subdirectories for the individual building blocks.
package schedkit
