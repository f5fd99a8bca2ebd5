package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kibaro-cli/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("KIBARO_API_URL", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4001/api", cfg.API.BaseURL)
	assert.Equal(t, config.SessionFile, cfg.Session.Backend)
	assert.Equal(t, config.OfflineSQLite, cfg.Offline.Driver)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  base_url: https://kibaro.example/api
session:
  backend: memory
poll:
  duel_wait: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://kibaro.example/api", cfg.API.BaseURL)
	assert.Equal(t, config.SessionMemory, cfg.Session.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3*time.Second, config.TTLDuration(cfg.Poll.DuelWait, time.Second))
	assert.Equal(t, "1200ms", cfg.Poll.RoomPlay, "unset keys keep defaults")
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Backend = config.SessionRedis
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")

	cfg = config.Default()
	cfg.Offline.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.API.BaseURL = " "
	assert.Error(t, cfg.Validate())
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, config.TTLDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, config.TTLDuration("nope", 5*time.Second))
	assert.Equal(t, 250*time.Millisecond, config.TTLDuration("250ms", time.Second))
}
