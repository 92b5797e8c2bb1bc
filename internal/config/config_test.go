package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	t.Setenv("SANDBOX_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.World.RenderDistance)
	assert.Equal(t, -25.0, cfg.Physics.TerminalVelocity)
	assert.Equal(t, 12.0, cfg.Physics.JumpForce)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sandbox.yaml")
	data := []byte(`
world:
  render_distance: 3
physics:
  speed: 7.5
  warmup_ms: 250
storage:
  backend: badger
  path: /tmp/world
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.World.RenderDistance)
	assert.Equal(t, 7.5, cfg.Physics.Speed)
	assert.Equal(t, int64(250), cfg.Physics.Warmup().Milliseconds())
	assert.Equal(t, 9.8, cfg.Physics.Gravity, "незаданное поле получает умолчание")
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/world", cfg.Storage.Path)
}

func TestLoad_EnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("eventbus:\n  backend: nats\n"), 0o644))
	t.Setenv("SANDBOX_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.EventBus.Backend)
	assert.Equal(t, "SANDBOX_EVENTS", cfg.EventBus.Stream)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: floppy\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMetricsPortEnvFallback(t *testing.T) {
	t.Setenv("SANDBOX_METRICS_PORT", "9100")
	m := MetricsConfig{}
	assert.Equal(t, 9100, m.GetMetricsPort())

	m.Port = 2112
	assert.Equal(t, 2112, m.GetMetricsPort())
}

func TestDefaults_TelemetryFromEnv(t *testing.T) {
	t.Setenv("SANDBOX_OTLP_ENDPOINT", "collector:4318")
	cfg := Default()
	assert.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, "sandbox", cfg.Telemetry.Service)
}
