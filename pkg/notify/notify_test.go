package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedkit/schedkit/pkg/notify"
)

func TestSinkFunc(t *testing.T) {
	t.Parallel()

	var gotMeta notify.Meta
	sink := notify.SinkFunc(func(_ context.Context, notifs []notify.Notification, meta notify.Meta) error {
		gotMeta = meta
		return nil
	})

	err := sink.Handle(context.Background(), []notify.Notification{{UserID: 1}}, notify.Meta{JobName: "digest"})
	require.NoError(t, err)
	assert.Equal(t, "digest", gotMeta.JobName)
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every sink", func(t *testing.T) {
		t.Parallel()

		var first, second int
		m := notify.NewMultiSink([]notify.Sink{
			notify.SinkFunc(func(context.Context, []notify.Notification, notify.Meta) error {
				first++
				return nil
			}),
			notify.SinkFunc(func(context.Context, []notify.Notification, notify.Meta) error {
				second++
				return nil
			}),
		})

		err := m.Handle(context.Background(), []notify.Notification{{UserID: 1}, {UserID: 2}}, notify.Meta{})
		require.NoError(t, err)
		assert.Equal(t, 1, first)
		assert.Equal(t, 1, second)
	})

	t.Run("failing sink does not block the rest", func(t *testing.T) {
		t.Parallel()

		var delivered int
		m := notify.NewMultiSink([]notify.Sink{
			notify.SinkFunc(func(context.Context, []notify.Notification, notify.Meta) error {
				return errors.New("transport down")
			}),
			notify.SinkFunc(func(context.Context, []notify.Notification, notify.Meta) error {
				delivered++
				return nil
			}),
		})

		err := m.Handle(context.Background(), []notify.Notification{{UserID: 1}}, notify.Meta{JobName: "digest"})
		require.NoError(t, err)
		assert.Equal(t, 1, delivered)
	})
}

func TestNopSink(t *testing.T) {
	t.Parallel()

	err := notify.NopSink{}.Handle(context.Background(), []notify.Notification{{UserID: 1}}, notify.Meta{})
	require.NoError(t, err)
}
