package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/averycross/waygate/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waygate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port, "unset port falls back to default")
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
log_level: warn
server:
  port: 9000
redis:
  enabled: true
  address: redis:6379
  lock_key: player-1
engine:
  max_attempts: 6
  monitor_window: 1200ms
  clearance_margin: 1.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "player-1", cfg.Redis.LockKey)

	tun, err := cfg.Tunables()
	require.NoError(t, err)
	assert.Equal(t, 6, tun.MaxAttempts)
	assert.Equal(t, 1200*time.Millisecond, tun.MonitorWindow)
	assert.InDelta(t, 1.5, tun.ClearanceMargin, 1e-9)
	// Untouched knobs keep their defaults.
	assert.Equal(t, engine.DefaultTunables().SettleSteps, tun.SettleSteps)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "log_level: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTunables_UnknownKeyRejected(t *testing.T) {
	cfg := Default()
	cfg.Engine = map[string]any{"warp_speed": 9}

	_, err := cfg.Tunables()
	assert.Error(t, err, "typos in tunable names should not pass silently")
}

func TestTunables_BadDurationRejected(t *testing.T) {
	cfg := Default()
	cfg.Engine = map[string]any{"monitor_window": "soonish"}

	_, err := cfg.Tunables()
	assert.Error(t, err)
}
