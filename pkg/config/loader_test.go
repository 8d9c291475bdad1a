package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/config"
)

type sampleConfig struct {
	Issuer string        `env:"CFG_TEST_ISSUER" envDefault:"authcore"`
	TTL    time.Duration `env:"CFG_TEST_TTL" envDefault:"60m"`
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED_VALUE,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults and caching", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFG_TEST_ISSUER", "first")

		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "first", cfg.Issuer)
		assert.Equal(t, time.Hour, cfg.TTL)

		t.Setenv("CFG_TEST_ISSUER", "second")
		var again sampleConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "first", again.Issuer, "cached value expected")

		config.Reset()
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "second", again.Issuer)
	})

	t.Run("missing required", func(t *testing.T) {
		config.Reset()
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[sampleConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		config.Reset()
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}

func TestLoadEnv(t *testing.T) {
	config.Reset()
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("CFG_TEST_REQUIRED_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CFG_TEST_REQUIRED_VALUE") })

	require.NoError(t, config.LoadEnv(file))

	var cfg requiredConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Value)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnv)
}
