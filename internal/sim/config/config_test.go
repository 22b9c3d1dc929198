package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
tick_rate_hz: 20
world:
  height: 16
materials:
  body: STONE
data:
  dir: /tmp/chips
  trace_log: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.TickRateHz)
	require.Equal(t, 16, cfg.World.Height)
	require.Equal(t, "STONE", cfg.Materials.Body)
	require.Equal(t, "/tmp/chips", cfg.Data.Dir)
	require.True(t, cfg.Data.TraceLog)

	// Untouched fields keep their defaults.
	require.Equal(t, 4096, cfg.World.BoundaryR)
	require.Equal(t, "IRON_BLOCK", cfg.Materials.Input)
}

func TestLoadRejectsBadTickRate(t *testing.T) {
	path := writeConfig(t, "tick_rate_hz: 0\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "tick_rate_hz: [nope\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.True(t, os.IsNotExist(err))
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.Positive(t, cfg.TickRateHz)
	require.Positive(t, cfg.World.Height)
	require.NotEmpty(t, cfg.Materials.Sign)
	require.NotEmpty(t, cfg.Data.Dir)
}
