// Package config loads application configuration from environment variables
// into tagged structs.
//
// It combines github.com/joho/godotenv for .env file loading with
// github.com/caarlos0/env/v11 for struct parsing, and caches each parsed
// config type for the lifetime of the process.
//
// Usage:
//
//	type RedisConfig struct {
//		Host string `env:"REDIS_HOST" envDefault:"localhost"`
//		Port int    `env:"REDIS_PORT" envDefault:"6379"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Tests that mutate the process environment should call ResetCache between
// loads.
package config
