package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := NewConfigLoader("", "").LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Probe.MaxConcurrentRequests)
	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "./data", cfg.Lists.Directory)
	assert.Equal(t, filepath.Join("data", "wmn-data.json"), cfg.Lists.UsernamePath())
	assert.True(t, cfg.Probe.UseCache)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
probe:
  timeout: 5s
  max_concurrent_requests: 12
  batch_pause: 250ms
lists:
  directory: /srv/lists
`), 0o644))

	t.Setenv("NEORECON_PROBE_MAX_CONCURRENT_REQUESTS", "7")

	loader := NewConfigLoader(path, "NEORECON")
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 7, cfg.Probe.MaxConcurrentRequests)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.BatchPause)
	assert.Equal(t, "/srv/lists", cfg.Lists.Directory)
	assert.Equal(t, path, loader.GetConfigPath())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("probe:\n  max_concurrent_requests: -1\n"), 0o644))

	_, err := NewConfigLoader(path, "").LoadConfig()
	assert.Error(t, err)
}

func TestEnvFileProvidesSessionToken(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("INSTAGRAM_SESSION_ID=abc123\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("INSTAGRAM_SESSION_ID") })

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, Default().Save(cfgPath))

	_, cfg, err := Load(cfgPath, envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Enrich.SessionToken)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Probe.MaxConcurrentRequests = 3
	cfg.Server.Listen = ":9000"
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfigLoader(path, "").LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Probe.MaxConcurrentRequests)
	assert.Equal(t, ":9000", loaded.Server.Listen)
	assert.Equal(t, cfg.Probe.Timeout, loaded.Probe.Timeout)
}
