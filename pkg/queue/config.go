package queue

import (
	"time"

	"github.com/schedkit/schedkit/pkg/redisconn"
)

// Config holds the configuration for the queue manager.
type Config struct {
	Redis redisconn.Config

	Concurrency     int           `env:"QUEUE_CONCURRENCY" envDefault:"5"`       // Concurrency caps simultaneously executing work items.
	MaxAttempts     int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`      // MaxAttempts is the per-item attempt budget (first run included).
	BackoffBase     time.Duration `env:"QUEUE_BACKOFF_BASE" envDefault:"5s"`     // BackoffBase is the first retry delay; it doubles per attempt.
	BackoffMax      time.Duration `env:"QUEUE_BACKOFF_MAX" envDefault:"5m"`      // BackoffMax caps the exponential retry delay.
	PullTimeout     time.Duration `env:"QUEUE_PULL_TIMEOUT" envDefault:"1s"`     // PullTimeout bounds each blocking pop.
	MonitorInterval time.Duration `env:"QUEUE_MONITOR_INTERVAL" envDefault:"1m"` // MonitorInterval is the cadence of queue stats logging; 0 disables it.
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 5 * time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 5 * time.Minute
	}
	if c.PullTimeout <= 0 {
		c.PullTimeout = time.Second
	}
	return c
}
