package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/tmp/spatialdeck-workspaces", cfg.Storage.Root)
	assert.False(t, cfg.Storage.Compress)
	assert.True(t, cfg.Storage.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_ROOT", "/var/lib/workspaces")
	t.Setenv("STORAGE_COMPRESS", "true")
	t.Setenv("RATE_LIMIT_RPS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/var/lib/workspaces", cfg.Storage.Root)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("STORAGE_COMPRESS", "not-a-bool")

	cfg := LoadOrDefault()
	assert.Equal(t, Default(), cfg)
}
