package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing file falls back to defaults")

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 90*time.Second, cfg.Server.TurnTimer)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Replay.Enabled)
	assert.Equal(t, "replays", cfg.Replay.Dir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9999"
  turn_timer: 30s
database:
  enabled: true
  url: "postgres://battle:battle@db:5432/battle"
  max_conns: 4
logging:
  level: debug
  format: console
replay:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.TurnTimer)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://battle:battle@db:5432/battle", cfg.Database.URL)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Replay.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BATTLE_SERVER_ADDRESS", ":7777")
	t.Setenv("BATTLE_LOGGING_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty address", "server:\n  address: \"\"\n"},
		{"negative timer", "server:\n  turn_timer: -5s\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"db enabled without url", "database:\n  enabled: true\n  url: \"\"\n"},
		{"replay enabled without dir", "replay:\n  enabled: true\n  dir: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
