package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/logger"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateWithDetails(cfg))
	assert.Equal(t, cadence.DefaultIntervals, cfg.Study.Intervals)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "cadence", cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, cadence.DefaultIntervals, cfg.Study.Intervals)
	assert.InDelta(t, 0.9, cfg.Study.DesiredRetention, 1e-9)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, "cadence.yaml", `
log:
  level: debug
  format: json
study:
  intervals: [1, 2, 4]
  cram_mode: true
server:
  port: 9000
  read_timeout: 3s
`)
	l := NewLoader()
	cfg, err := l.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, l.File())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []int{1, 2, 4}, cfg.Study.Intervals)
	assert.True(t, cfg.Study.CramMode)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.True(t, cfg.Study.UseAdaptive)
}

func TestLoadJSONFile(t *testing.T) {
	path := writeConfig(t, "cadence.json", `{"storage": {"path": "/tmp/x.db"}, "metrics": {"enabled": false}}`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "not found")

	path := writeConfig(t, "cadence.toml", "x = 1")
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, "unsupported")
}

func TestLoadStandardLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cadence.yml"), []byte("log:\n  level: warn\n"), 0o644))
	t.Chdir(dir)

	l := NewLoader()
	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "cadence.yml", l.File())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cadence.yaml", "server:\n  port: 9000\n")
	t.Setenv("CADENCE_SERVER_PORT", "9100")
	t.Setenv("CADENCE_SERVER_RATE_LIMIT_RPS", "5")
	t.Setenv("CADENCE_STUDY_INTERVALS", "2, 5, 10")
	t.Setenv("CADENCE_STUDY_DESIRED_RETENTION", "0.85")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, []int{2, 5, 10}, cfg.Study.Intervals)
	assert.InDelta(t, 0.85, cfg.Study.DesiredRetention, 1e-9)
}

func TestLoadOverridesWin(t *testing.T) {
	t.Setenv("CADENCE_STORAGE_PATH", "/from/env.db")
	cfg, err := Load(writeConfig(t, "c.yaml", "app:\n  name: cadence\n"), map[string]any{
		"storage.path": "/from/flag.db",
		"log.level":    "error",
	})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.Storage.Path)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"CADENCE_LOG_LEVEL":               "log.level",
		"CADENCE_STUDY_DESIRED_RETENTION": "study.desired_retention",
		"CADENCE_TRACING_SAMPLE_RATE":     "tracing.sample_rate",
		"CADENCE_DEBUG":                   "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestStructToMap(t *testing.T) {
	m := structToMap(DefaultConfig(), "")
	assert.Equal(t, "cadence", m["app.name"])
	assert.Equal(t, 15*time.Second, m["server.read_timeout"])
	assert.Len(t, m["study.intervals"], len(cadence.DefaultIntervals))
	assert.NotContains(t, m, "server")
}

func TestConverters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Study.Intervals = []int{1, 2}

	assert.Equal(t, logger.DebugLevel, cfg.Log.LoggerConfig().Level)

	settings := cfg.Study.Settings()
	assert.Equal(t, []int{1, 2}, settings.Intervals)
	settings.Intervals[0] = 99
	assert.Equal(t, 1, cfg.Study.Intervals[0])

	mc := cfg.Metrics.ManagerConfig()
	assert.True(t, mc.Enabled)
	assert.Equal(t, "/metrics", mc.Path)

	tc := cfg.Tracing.TelemetryConfig()
	assert.Equal(t, "localhost:4317", tc.Endpoint)
	assert.Equal(t, "ratio", tc.Sampler)
}
