// Package queue provides the durable execution surface of the scheduling
// engine: a Redis-backed work queue with a bounded-concurrency worker loop.
//
// The Manager accepts WorkItems from the scheduler, persists them in
// Redis (a ready list plus a delayed sorted set for backoff and deferred
// submissions), and pulls them back out in a worker loop that invokes the
// registered job handler. Handler failures are retried with exponential
// backoff up to a configured attempt budget; each attempt reports into the
// same execution id. After a successful run any notifications the handler
// produced are forwarded to the configured notify.Sink.
//
// # Offline mode
//
// If the backend is unreachable when Initialize runs — or a connection is
// lost mid-operation — the manager degrades instead of failing: submissions
// are executed best effort in process memory under the same concurrency
// limit, handles are marked non-durable, and Stats reports all zeros. A Redis
// outage therefore never crashes the host process and never blocks manual
// job triggers.
//
// # Usage
//
//	mgr, err := queue.NewManager(cfg, reg, queue.WithSink(sink))
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Shutdown(ctx)
//
//	handle, err := mgr.AddJob(ctx, item, queue.WithPriority(queue.PriorityHigh))
package queue
