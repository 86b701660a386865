package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedkit/schedkit/pkg/registry"
)

type stubHandler struct {
	def     registry.JobDefinition
	execute func(ctx context.Context, run registry.ExecContext) (*registry.Result, error)
}

func (h *stubHandler) Definition() registry.JobDefinition { return h.def }

func (h *stubHandler) Execute(ctx context.Context, run registry.ExecContext) (*registry.Result, error) {
	if h.execute == nil {
		return nil, nil
	}
	return h.execute(ctx, run)
}

func handlerNamed(name string) *stubHandler {
	return &stubHandler{def: registry.JobDefinition{
		Name:            name,
		DefaultSchedule: "0 9 * * *",
		DefaultTimezone: "UTC",
	}}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil handler", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.ErrorIs(t, r.Register(nil), registry.ErrHandlerNil)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.ErrorIs(t, r.Register(&stubHandler{}), registry.ErrHandlerNameEmpty)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.NoError(t, r.Register(handlerNamed("daily_digest")))
		err := r.Register(handlerNamed("daily_digest"))
		require.ErrorIs(t, err, registry.ErrHandlerAlreadyRegistered)
	})

	t.Run("has reflects registration", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		assert.False(t, r.Has("daily_digest"))
		require.NoError(t, r.Register(handlerNamed("daily_digest")))
		assert.True(t, r.Has("daily_digest"))
	})

	t.Run("must register panics on failure", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		assert.Panics(t, func() {
			r.MustRegister(handlerNamed("a"), handlerNamed("a"))
		})
	})
}

func TestRegistry_Execute(t *testing.T) {
	t.Parallel()

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		_, err := r.Execute(context.Background(), "missing", registry.ExecContext{})
		require.ErrorIs(t, err, registry.ErrHandlerNotFound)
	})

	t.Run("passes run context through", func(t *testing.T) {
		t.Parallel()

		h := handlerNamed("weekly_report")
		h.execute = func(_ context.Context, run registry.ExecContext) (*registry.Result, error) {
			assert.Equal(t, "weekly_report", run.JobKey)
			return &registry.Result{Success: true, UsersAffected: 7}, nil
		}

		r := registry.New()
		require.NoError(t, r.Register(h))

		res, err := r.Execute(context.Background(), "weekly_report", registry.ExecContext{JobKey: "weekly_report"})
		require.NoError(t, err)
		assert.Equal(t, 7, res.UsersAffected)
	})

	t.Run("nil result is normalized to success", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.NoError(t, r.Register(handlerNamed("cleanup")))

		res, err := r.Execute(context.Background(), "cleanup", registry.ExecContext{})
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.Success)
	})

	t.Run("handler errors propagate", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		h := handlerNamed("flaky")
		h.execute = func(context.Context, registry.ExecContext) (*registry.Result, error) {
			return nil, wantErr
		}

		r := registry.New()
		require.NoError(t, r.Register(h))

		_, err := r.Execute(context.Background(), "flaky", registry.ExecContext{})
		require.ErrorIs(t, err, wantErr)
	})
}

func TestRegistry_Defaults(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(handlerNamed("zeta"), handlerNamed("alpha"), handlerNamed("mid"))

	defs := r.Defaults()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "mid", defs[1].Name)
	assert.Equal(t, "zeta", defs[2].Name)
}
