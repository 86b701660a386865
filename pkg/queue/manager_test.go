package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedkit/schedkit/pkg/notify"
	"github.com/schedkit/schedkit/pkg/queue"
	"github.com/schedkit/schedkit/pkg/redisconn"
	"github.com/schedkit/schedkit/pkg/registry"
)

// offlineConfig points at a port nothing listens on so Initialize degrades
// into offline mode quickly.
func offlineConfig() queue.Config {
	return queue.Config{
		Redis: redisconn.Config{
			Host:           "127.0.0.1",
			Port:           1,
			ConnectTimeout: 50 * time.Millisecond,
			RetryAttempts:  1,
			RetryInterval:  10 * time.Millisecond,
		},
		Concurrency: 2,
		MaxAttempts: 3,
		BackoffBase: 5 * time.Millisecond,
		BackoffMax:  20 * time.Millisecond,
		PullTimeout: 50 * time.Millisecond,
	}
}

type stubHandler struct {
	name    string
	execute func(ctx context.Context, run registry.ExecContext) (*registry.Result, error)
}

func (h *stubHandler) Definition() registry.JobDefinition {
	return registry.JobDefinition{Name: h.name, DefaultSchedule: "0 9 * * *"}
}

func (h *stubHandler) Execute(ctx context.Context, run registry.ExecContext) (*registry.Result, error) {
	return h.execute(ctx, run)
}

// recordingReporter collects lifecycle callbacks and signals on the first
// terminal report.
type recordingReporter struct {
	mu       sync.Mutex
	started  []uuid.UUID
	finished []uuid.UUID
	results  []*registry.Result
	errs     []error
	done     chan struct{}
	once     sync.Once
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{done: make(chan struct{})}
}

func (r *recordingReporter) ExecutionStarted(_ context.Context, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *recordingReporter) ExecutionFinished(_ context.Context, id uuid.UUID, res *registry.Result, execErr error) {
	r.mu.Lock()
	r.finished = append(r.finished, id)
	r.results = append(r.results, res)
	r.errs = append(r.errs, execErr)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recordingReporter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal status report")
	}
}

func TestNewManager(t *testing.T) {
	t.Parallel()

	_, err := queue.NewManager(offlineConfig(), nil)
	require.ErrorIs(t, err, queue.ErrRegistryNil)
}

func TestManager_AddJobBeforeInitialize(t *testing.T) {
	t.Parallel()

	m, err := queue.NewManager(offlineConfig(), registry.New())
	require.NoError(t, err)

	_, err = m.AddJob(context.Background(), queue.WorkItem{JobKey: "x"})
	require.ErrorIs(t, err, queue.ErrNotInitialized)
}

func TestManager_OfflineMode(t *testing.T) {
	t.Parallel()

	executed := make(chan registry.ExecContext, 1)
	reg := registry.New()
	reg.MustRegister(&stubHandler{
		name: "daily_digest",
		execute: func(_ context.Context, run registry.ExecContext) (*registry.Result, error) {
			executed <- run
			return &registry.Result{
				Success:       true,
				UsersAffected: 2,
				Notifications: []notify.Notification{{UserID: 1, Message: "hi"}, {UserID: 2, Message: "hi"}},
			}, nil
		},
	})

	var sinkMu sync.Mutex
	var sinkBatches [][]notify.Notification
	sink := notify.SinkFunc(func(_ context.Context, notifs []notify.Notification, _ notify.Meta) error {
		sinkMu.Lock()
		defer sinkMu.Unlock()
		sinkBatches = append(sinkBatches, notifs)
		return nil
	})

	reporter := newRecordingReporter()
	m, err := queue.NewManager(offlineConfig(), reg, queue.WithSink(sink), queue.WithStatusReporter(reporter))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx), "an unreachable backend must not fail startup")
	assert.True(t, m.Offline())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	execID := uuid.New()
	handle, err := m.AddJob(ctx, queue.WorkItem{
		JobName:     "daily_digest",
		JobKey:      "daily_digest",
		ExecutionID: execID,
		Config:      []byte(`{"limit": 10}`),
	})
	require.NoError(t, err)
	assert.False(t, handle.Durable)
	assert.NotEqual(t, uuid.Nil, handle.ID)

	select {
	case run := <-executed:
		assert.Equal(t, "daily_digest", run.JobKey)
		assert.Equal(t, execID, run.ExecutionID)
		assert.Equal(t, float64(10), run.Config["limit"])
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not executed in offline mode")
	}

	reporter.wait(t)
	reporter.mu.Lock()
	assert.Equal(t, []uuid.UUID{execID}, reporter.started)
	assert.Equal(t, []uuid.UUID{execID}, reporter.finished)
	require.Len(t, reporter.errs, 1)
	assert.NoError(t, reporter.errs[0])
	reporter.mu.Unlock()

	sinkMu.Lock()
	require.Len(t, sinkBatches, 1)
	assert.Len(t, sinkBatches[0], 2)
	sinkMu.Unlock()

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{}, stats, "offline stats report all zeros")
}

func TestManager_OfflineRetry(t *testing.T) {
	t.Parallel()

	var calls int
	var callsMu sync.Mutex
	reg := registry.New()
	reg.MustRegister(&stubHandler{
		name: "flaky",
		execute: func(context.Context, registry.ExecContext) (*registry.Result, error) {
			callsMu.Lock()
			defer callsMu.Unlock()
			calls++
			if calls == 1 {
				return nil, errors.New("transient failure")
			}
			return &registry.Result{Success: true}, nil
		},
	})

	reporter := newRecordingReporter()
	m, err := queue.NewManager(offlineConfig(), reg, queue.WithStatusReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	execID := uuid.New()
	_, err = m.AddJob(context.Background(), queue.WorkItem{
		JobName:     "flaky",
		JobKey:      "flaky",
		ExecutionID: execID,
	})
	require.NoError(t, err)

	reporter.wait(t)
	callsMu.Lock()
	assert.Equal(t, 2, calls, "first failure should be retried")
	callsMu.Unlock()

	reporter.mu.Lock()
	require.Len(t, reporter.finished, 1, "only the final attempt reports a terminal status")
	assert.NoError(t, reporter.errs[0])
	reporter.mu.Unlock()
}

func TestManager_OfflineRetryExhausted(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("always broken")
	var calls int
	var callsMu sync.Mutex
	reg := registry.New()
	reg.MustRegister(&stubHandler{
		name: "broken",
		execute: func(context.Context, registry.ExecContext) (*registry.Result, error) {
			callsMu.Lock()
			calls++
			callsMu.Unlock()
			return nil, wantErr
		},
	})

	cfg := offlineConfig()
	cfg.MaxAttempts = 2

	reporter := newRecordingReporter()
	m, err := queue.NewManager(cfg, reg, queue.WithStatusReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	_, err = m.AddJob(context.Background(), queue.WorkItem{JobName: "broken", JobKey: "broken", ExecutionID: uuid.New()})
	require.NoError(t, err)

	reporter.wait(t)
	callsMu.Lock()
	assert.Equal(t, 2, calls)
	callsMu.Unlock()

	reporter.mu.Lock()
	require.Len(t, reporter.errs, 1)
	assert.ErrorIs(t, reporter.errs[0], wantErr)
	reporter.mu.Unlock()
}

func TestManager_MissingHandler(t *testing.T) {
	t.Parallel()

	reporter := newRecordingReporter()
	m, err := queue.NewManager(offlineConfig(), registry.New(), queue.WithStatusReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	_, err = m.AddJob(context.Background(), queue.WorkItem{JobName: "ghost", JobKey: "ghost", ExecutionID: uuid.New()})
	require.NoError(t, err)

	reporter.wait(t)
	reporter.mu.Lock()
	require.Len(t, reporter.errs, 1)
	assert.ErrorIs(t, reporter.errs[0], registry.ErrHandlerNotFound)
	reporter.mu.Unlock()
}

func TestManager_PanickingHandler(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.MustRegister(&stubHandler{
		name: "panicky",
		execute: func(context.Context, registry.ExecContext) (*registry.Result, error) {
			panic("handler bug")
		},
	})

	cfg := offlineConfig()
	cfg.MaxAttempts = 1

	reporter := newRecordingReporter()
	m, err := queue.NewManager(cfg, reg, queue.WithStatusReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	_, err = m.AddJob(context.Background(), queue.WorkItem{JobName: "panicky", JobKey: "panicky", ExecutionID: uuid.New()})
	require.NoError(t, err)

	reporter.wait(t)
	reporter.mu.Lock()
	require.Len(t, reporter.errs, 1)
	assert.ErrorContains(t, reporter.errs[0], "panic in job handler")
	reporter.mu.Unlock()
}

func TestManager_PauseResume(t *testing.T) {
	t.Parallel()

	m, err := queue.NewManager(offlineConfig(), registry.New())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	// Both are idempotent flag flips; repeated calls must not block or panic.
	m.Pause()
	m.Pause()
	m.Resume()
	m.Resume()
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	t.Parallel()

	m, err := queue.NewManager(offlineConfig(), registry.New())
	require.NoError(t, err)

	// Shutdown before Initialize is a no-op.
	require.NoError(t, m.Shutdown(context.Background()))

	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}
