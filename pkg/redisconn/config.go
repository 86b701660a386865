package redisconn

import "time"

// Config describes the queue backend connection. Fields map directly to the
// go-redis client options.
type Config struct {
	Host           string        `env:"REDIS_HOST" envDefault:"localhost"`      // Host is the Redis server hostname.
	Port           int           `env:"REDIS_PORT" envDefault:"6379"`           // Port is the Redis server port.
	Password       string        `env:"REDIS_PASSWORD"`                         // Password is optional.
	DB             int           `env:"REDIS_DB" envDefault:"0"`                // DB selects the logical database.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"3s"`  // ConnectTimeout bounds the initial ping.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"1"`    // RetryAttempts is the number of connect attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`   // RetryInterval is the delay between attempts.
}
