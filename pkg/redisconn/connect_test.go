package redisconn_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schedkit/schedkit/pkg/redisconn"
)

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	cfg := redisconn.Config{
		Host:           "127.0.0.1",
		Port:           1,
		ConnectTimeout: 50 * time.Millisecond,
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
	}

	start := time.Now()
	_, err := redisconn.Connect(context.Background(), cfg)
	require.ErrorIs(t, err, redisconn.ErrNotReady)
	require.Less(t, time.Since(start), 2*time.Second, "connect must fail fast so startup can degrade")
}

func TestConnect_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := redisconn.Config{
		Host:           "127.0.0.1",
		Port:           1,
		ConnectTimeout: 50 * time.Millisecond,
		RetryAttempts:  3,
		RetryInterval:  time.Minute,
	}

	_, err := redisconn.Connect(ctx, cfg)
	require.ErrorIs(t, err, redisconn.ErrNotReady)
}
