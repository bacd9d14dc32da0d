package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverEnv struct {
	HTTPPort     int           `env:"LOADER_TEST_HTTP_PORT" envDefault:"8080"`
	LogLevel     string        `env:"LOADER_TEST_LOG_LEVEL" envDefault:"info"`
	AccessExpiry time.Duration `env:"LOADER_TEST_ACCESS_EXPIRY" envDefault:"15m"`
	Development  bool          `env:"LOADER_TEST_DEV" envDefault:"true"`
}

func TestLoad_EnvDefaults(t *testing.T) {
	var cfg serverEnv
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessExpiry)
	assert.True(t, cfg.Development)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("LOADER_TEST_HTTP_PORT", "9090")
	t.Setenv("LOADER_TEST_LOG_LEVEL", "debug")
	t.Setenv("LOADER_TEST_ACCESS_EXPIRY", "5m")
	t.Setenv("LOADER_TEST_DEV", "false")

	var cfg serverEnv
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.AccessExpiry)
	assert.False(t, cfg.Development)
}

func TestLoad_RequiredVariable(t *testing.T) {
	type secretEnv struct {
		JWTSecret string `env:"LOADER_TEST_JWT_SECRET,required"`
	}

	var cfg secretEnv
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	t.Setenv("LOADER_TEST_JWT_SECRET", "a-sufficiently-long-signing-secret")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "a-sufficiently-long-signing-secret", cfg.JWTSecret)
}

func TestLoad_TypeMismatch(t *testing.T) {
	t.Setenv("LOADER_TEST_HTTP_PORT", "not-a-port")

	var cfg serverEnv
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
