package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/pkg/config"
)

type appConfig struct {
	Name     string        `env:"CONFIG_TEST_NAME" envDefault:"campusnotify"`
	Limit    int           `env:"CONFIG_TEST_LIMIT" envDefault:"5"`
	Interval time.Duration `env:"CONFIG_TEST_INTERVAL" envDefault:"30s"`
	Tags     []string      `env:"CONFIG_TEST_TAGS" envSeparator:","`
}

type requiredConfig struct {
	Key string `env:"CONFIG_TEST_REQUIRED,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()

		var cfg appConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "campusnotify", cfg.Name)
		assert.Equal(t, 5, cfg.Limit)
		assert.Equal(t, 30*time.Second, cfg.Interval)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CONFIG_TEST_LIMIT", "12")
		t.Setenv("CONFIG_TEST_INTERVAL", "1m")

		var cfg appConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 12, cfg.Limit)
		assert.Equal(t, time.Minute, cfg.Interval)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CONFIG_TEST_NAME", "first")

		var first appConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("CONFIG_TEST_NAME", "second")
		var second appConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Name)

		config.ResetCache()
		var third appConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Name)
	})

	t.Run("missing required", func(t *testing.T) {
		config.ResetCache()

		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)

		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[appConfig](nil), config.ErrNilPointer)
	})
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_TEST_NAME", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("CONFIG_TEST_LIMIT")
		os.Unsetenv("CONFIG_TEST_TAGS")
	})

	require.NoError(t, config.LoadEnv("testdata/test.env"))

	var cfg appConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-env", cfg.Name, "process environment wins")
	assert.Equal(t, 7, cfg.Limit)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)

	assert.Error(t, config.LoadEnv("testdata/missing.env"))
}
