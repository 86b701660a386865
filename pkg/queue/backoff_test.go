package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	m := &Manager{cfg: Config{
		BackoffBase: 5 * time.Second,
		BackoffMax:  60 * time.Second,
	}.withDefaults()}

	assert.Equal(t, 5*time.Second, m.backoffDelay(1))
	assert.Equal(t, 10*time.Second, m.backoffDelay(2))
	assert.Equal(t, 20*time.Second, m.backoffDelay(3))
	assert.Equal(t, 40*time.Second, m.backoffDelay(4))
	assert.Equal(t, 60*time.Second, m.backoffDelay(5), "delay is capped")
	assert.Equal(t, 60*time.Second, m.backoffDelay(12))
}

func TestConfigWithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.BackoffMax)
	assert.Equal(t, time.Second, cfg.PullTimeout)
}
