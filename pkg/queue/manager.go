package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/schedkit/schedkit/pkg/notify"
	"github.com/schedkit/schedkit/pkg/redisconn"
)

// Redis keys used by the durable backend.
const (
	queueKey   = "schedkit:queue"   // list of ready work items
	delayedKey = "schedkit:delayed" // zset of delayed items scored by ready time
	statsKey   = "schedkit:stats"   // hash of completed/failed counters
)

// Manager owns the durable queue connection and the bounded-concurrency
// worker loop. When the backend is unreachable at Initialize it degrades into
// offline mode: submissions are executed best effort in process memory and
// statistics report all zeros. Scheduling must never crash the host process
// merely because the backend is down.
type Manager struct {
	cfg      Config
	reg      Registry
	sink     notify.Sink
	logger   *slog.Logger
	reporter StatusReporter

	mu      sync.Mutex
	client  *redis.Client
	started bool
	cancel  context.CancelFunc

	offline atomic.Bool
	paused  atomic.Bool
	active  atomic.Int64
	wg      sync.WaitGroup
	sem     chan struct{}
}

// NewManager creates a queue manager. The manager does nothing until
// Initialize is called.
func NewManager(cfg Config, reg Registry, opts ...ManagerOption) (*Manager, error) {
	if reg == nil {
		return nil, ErrRegistryNil
	}
	m := &Manager{
		cfg:    cfg.withDefaults(),
		reg:    reg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SetStatusReporter wires the execution tracker in after construction. Must
// be called before Initialize.
func (m *Manager) SetStatusReporter(r StatusReporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporter = r
}

// Initialize connects to the queue backend and starts the worker loop,
// delayed-item promoter, and stats monitor. A failed connect is not an
// error: the manager logs a warning and flips into offline mode. Calling
// Initialize twice is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	client, err := redisconn.Connect(ctx, m.cfg.Redis)
	if err != nil {
		m.logger.Warn("queue backend unreachable, degrading to offline mode",
			slog.String("host", m.cfg.Redis.Host),
			slog.Int("port", m.cfg.Redis.Port),
			slog.String("error", err.Error()))
		m.offline.Store(true)
	} else {
		m.client = client
		m.offline.Store(false)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.sem = make(chan struct{}, m.cfg.Concurrency)
	m.started = true

	if m.client != nil {
		m.wg.Add(2)
		go func() {
			defer m.wg.Done()
			m.dequeueLoop(runCtx)
		}()
		go func() {
			defer m.wg.Done()
			m.promoteLoop(runCtx)
		}()

		if m.cfg.MonitorInterval > 0 {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.monitorLoop(runCtx)
			}()
		}
	}

	m.logger.Info("queue manager started",
		slog.Int("concurrency", m.cfg.Concurrency),
		slog.Int("max_attempts", m.cfg.MaxAttempts),
		slog.Bool("offline", m.offline.Load()))
	return nil
}

// AddJob submits a work item. In online mode the item is durable and
// survives process restarts. In offline mode it is executed best effort in
// memory and the returned handle is marked non-durable.
func (m *Manager) AddJob(ctx context.Context, item WorkItem, opts ...AddOption) (Handle, error) {
	m.mu.Lock()
	started := m.started
	client := m.client
	m.mu.Unlock()

	if !started {
		return Handle{}, ErrNotInitialized
	}

	options := &addOptions{priority: PriorityNormal}
	for _, opt := range opts {
		opt(options)
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.MaxAttempts <= 0 {
		item.MaxAttempts = m.cfg.MaxAttempts
	}
	if item.StartedAt.IsZero() {
		item.StartedAt = time.Now()
	}
	item.Priority = options.priority

	if m.offline.Load() || client == nil {
		m.logger.Warn("queue backend offline, executing work item in memory",
			slog.String("job_name", item.JobName),
			slog.String("execution_id", item.ExecutionID.String()))
		m.dispatchLocal(item, options.delay)
		return Handle{ID: item.ID, Durable: false}, nil
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return Handle{}, err
	}

	if options.delay > 0 {
		readyAt := time.Now().Add(options.delay)
		err = client.ZAdd(ctx, delayedKey, redis.Z{
			Score:  float64(readyAt.UnixMilli()),
			Member: payload,
		}).Err()
	} else if options.priority == PriorityHigh {
		// The worker pops from the tail, so a tail push jumps the line.
		err = client.RPush(ctx, queueKey, payload).Err()
	} else {
		err = client.LPush(ctx, queueKey, payload).Err()
	}
	if err != nil {
		// Connection lost mid-operation: degrade future submissions and keep
		// this one alive in memory rather than dropping it.
		m.logger.Error("durable enqueue failed, degrading to offline mode",
			slog.String("job_name", item.JobName),
			slog.String("error", err.Error()))
		m.offline.Store(true)
		m.dispatchLocal(item, options.delay)
		return Handle{ID: item.ID, Durable: false}, nil
	}

	m.logger.Debug("work item enqueued",
		slog.String("job_name", item.JobName),
		slog.String("execution_id", item.ExecutionID.String()),
		slog.Duration("delay", options.delay),
		slog.String("priority", string(options.priority)))
	return Handle{ID: item.ID, Durable: true}, nil
}

// Stats returns aggregate queue counts. All zeros in offline mode.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if m.offline.Load() || client == nil {
		return Stats{}, nil
	}

	pipe := client.Pipeline()
	waitingCmd := pipe.LLen(ctx, queueKey)
	delayedCmd := pipe.ZCard(ctx, delayedKey)
	countersCmd := pipe.HGetAll(ctx, statsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Waiting: waitingCmd.Val(),
		Delayed: delayedCmd.Val(),
		Active:  m.active.Load(),
	}
	counters := countersCmd.Val()
	if v, ok := counters["completed"]; ok {
		stats.Completed, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := counters["failed"]; ok {
		stats.Failed, _ = strconv.ParseInt(v, 10, 64)
	}
	return stats, nil
}

// Offline reports whether the manager is running without a durable backend.
func (m *Manager) Offline() bool {
	return m.offline.Load()
}

// Pause suspends the worker loop. Queued items are kept.
func (m *Manager) Pause() {
	if m.paused.CompareAndSwap(false, true) {
		m.logger.Info("queue worker paused")
	}
}

// Resume continues a paused worker loop.
func (m *Manager) Resume() {
	if m.paused.CompareAndSwap(true, false) {
		m.logger.Info("queue worker resumed")
	}
}

// Shutdown stops the worker loop and monitor, waits for in-flight work
// bounded by ctx, then closes the backend connection. Idempotent and safe to
// call even if Initialize never ran.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	cancel := m.cancel
	client := m.client
	m.cancel = nil
	m.client = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("queue shutdown timed out waiting for in-flight work")
	}

	if client != nil {
		if err := client.Close(); err != nil {
			return err
		}
	}
	m.logger.Info("queue manager stopped")
	return nil
}

// dispatchLocal runs an item through the in-process worker path, bounded by
// the same concurrency semaphore as durable work.
func (m *Manager) dispatchLocal(item WorkItem, delay time.Duration) {
	m.wg.Add(1)
	run := func() {
		defer m.wg.Done()
		m.sem <- struct{}{}
		defer func() { <-m.sem }()
		m.process(context.Background(), item)
	}
	if delay > 0 {
		time.AfterFunc(delay, run)
		return
	}
	go run()
}

// monitorLoop periodically logs aggregate queue statistics.
func (m *Manager) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := m.Stats(ctx)
			if err != nil {
				m.logger.Debug("queue stats unavailable", slog.String("error", err.Error()))
				continue
			}
			m.logger.Debug("queue stats",
				slog.Int64("waiting", stats.Waiting),
				slog.Int64("active", stats.Active),
				slog.Int64("delayed", stats.Delayed),
				slog.Int64("completed", stats.Completed),
				slog.Int64("failed", stats.Failed))
		}
	}
}
