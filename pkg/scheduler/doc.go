// Package scheduler decides when named jobs run and tracks every run from
// submission to terminal outcome.
//
// The Scheduler keeps persisted job records (one per statically known job)
// synchronized with the registry catalog, maintains one live cron trigger
// per enabled job, and funnels both cron firings and manual triggers through
// a single ExecuteJob path: create a pending execution, resolve the
// recipient set, hand a work item to the queue manager, advance the
// last/next-run timestamps.
//
// Per job the in-memory trigger state is a two-state machine — stopped or
// scheduled. Installing a trigger always replaces any prior one for the same
// name, disabling a job or losing its handler forces it stopped, and an
// unparsable schedule leaves it stopped with a logged warning rather than
// failing the process.
//
// The execution tracker half of the package implements queue.StatusReporter:
// the queue worker reports attempt starts and the terminal outcome back into
// the same execution record, pending → running → success/failed, exactly one
// terminal transition per execution.
//
// # Wiring
//
//	reg := registry.New()
//	reg.MustRegister(&WeeklyCheckJob{})
//
//	store := storage.NewMemory()
//	resolver, _ := targeting.NewResolver(store, store)
//	mgr, _ := queue.NewManager(queueCfg, reg, queue.WithSink(sink))
//	sched, _ := scheduler.New(store, reg, mgr, resolver)
//
//	if err := sched.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer sched.Shutdown(ctx)
package scheduler
