package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.Archive.Ready())
	assert.NotEmpty(t, cfg.Notes())
}

func TestLoadFile_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  base_url: https://hr.example.com/
retry:
  max_attempts: 5
  delay: 500ms
store:
  driver: memory
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://hr.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Empty(t, cfg.Notes())
}

func TestEnvOverrides(t *testing.T) {
	t.Run("DB_* overrides postgres settings", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_PORT", "6543")
		t.Setenv("DB_PASSWORD", "secret")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "db.internal", cfg.Store.Postgres.Host)
		assert.Equal(t, 6543, cfg.Store.Postgres.Port)
		assert.Equal(t, "secret", cfg.Store.Postgres.Password)
	})

	t.Run("invalid DB_PORT is ignored", func(t *testing.T) {
		t.Setenv("DB_PORT", "not-a-port")

		cfg := &Config{}
		cfg.Store.Postgres.Port = 5432
		cfg.applyEnvOverrides()

		assert.Equal(t, 5432, cfg.Store.Postgres.Port)
	})

	t.Run("redis service env builds address", func(t *testing.T) {
		t.Setenv("REDIS_SERVICE_HOST", "redis")
		t.Setenv("REDIS_SERVICE_PORT", "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	})

	t.Run("API_BASE_URL wins and loses trailing slash", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "https://crm.example.org/")

		cfg := &Config{}
		cfg.API.BaseURL = "http://localhost:8000"
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://crm.example.org", cfg.API.BaseURL)
	})

	t.Run("R2 variables enable archive settings", func(t *testing.T) {
		t.Setenv("R2_BUCKET", "screens")
		t.Setenv("R2_ACCESS_KEY", "ak")
		t.Setenv("R2_SECRET_KEY", "sk")

		cfg := &Config{}
		cfg.Archive.Enabled = true
		cfg.applyArchiveOverrides()

		assert.True(t, cfg.Archive.Ready())
		assert.Equal(t, "auto", cfg.Archive.Region)
	})
}

func TestStoreConfig_DataDir(t *testing.T) {
	assert.Equal(t, "data", StoreConfig{SQLitePath: "data/fieldagent.db"}.DataDir())
	assert.Equal(t, ".", StoreConfig{SQLitePath: "fieldagent.db"}.DataDir())
	assert.Equal(t, ".", StoreConfig{SQLitePath: ":memory:"}.DataDir())
}
