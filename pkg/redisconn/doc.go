// Package redisconn provides the Redis connection helper used by the durable
// queue backend.
//
// Connect builds a go-redis client from a declarative Config (populated from
// environment variables via github.com/caarlos0/env) and verifies it with a
// ping bounded by a short timeout. Callers that can operate without the
// backend — notably the queue manager's offline mode — treat a Connect error
// as a degradation signal, not a fatal condition.
package redisconn
