package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "REDIS_ADDR", "CLEANUP_SCHEDULE", "CONFIG_FILE", "ANALYTICS_TTL_SECONDS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wellness.db", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 300, cfg.AnalyticsTTL)
	assert.Equal(t, "@every 1h", cfg.CleanupSchedule)
}

func TestLoad_EnvAndFile(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DEVELOPMENT", "true")

	path := filepath.Join(t.TempDir(), "wellness.yaml")
	require.NoError(t, os.WriteFile(path, []byte("natsUrl: nats://localhost:4222\ncleanupSchedule: \"*/5 * * * *\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.Development)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "*/5 * * * *", cfg.CleanupSchedule)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
