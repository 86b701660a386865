package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedkit/schedkit/pkg/config"
)

type testConfig struct {
	Host string `env:"CONFIGTEST_HOST" envDefault:"localhost"`
	Port int    `env:"CONFIGTEST_PORT" envDefault:"6379"`
}

type requiredConfig struct {
	Token string `env:"CONFIGTEST_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 6379, cfg.Port)
	})

	t.Run("reads process environment", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CONFIGTEST_HOST", "redis.internal")
		t.Setenv("CONFIGTEST_PORT", "6390")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "redis.internal", cfg.Host)
		assert.Equal(t, 6390, cfg.Port)
	})

	t.Run("cached until reset", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CONFIGTEST_HOST", "first")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "first", cfg.Host)

		t.Setenv("CONFIGTEST_HOST", "second")
		var cfg2 testConfig
		require.NoError(t, config.Load(&cfg2))
		assert.Equal(t, "first", cfg2.Host, "cached copy is served until ResetCache")

		config.ResetCache()
		var cfg3 testConfig
		require.NoError(t, config.Load(&cfg3))
		assert.Equal(t, "second", cfg3.Host)
	})

	t.Run("missing required env", func(t *testing.T) {
		config.ResetCache()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("loads file into process env", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("CONFIGTEST_HOST=from_file\n"), 0o600))

		config.ResetCache()
		t.Setenv("CONFIGTEST_HOST", "from_process")
		require.NoError(t, config.LoadEnv(path))

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "from_file", cfg.Host, "LoadEnv overrides existing values")
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
		require.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})

	t.Run("must variants panic on failure", func(t *testing.T) {
		assert.Panics(t, func() {
			config.MustLoadEnv(filepath.Join(t.TempDir(), "missing.env"))
		})
	})
}
