package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "moderate", cfg.Growth.Mode)
	assert.Equal(t, "memory", cfg.Quota.Backend)
	assert.Equal(t, []string{"instagram", "twitter"}, cfg.Growth.Platforms)
	assert.InDelta(t, 0.2, cfg.Growth.FollowBackRate, 1e-9)
	assert.Equal(t, 3, cfg.Growth.EngagementWindowDays)
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 8081
growth:
  platforms: [instagram, twitter, tiktok]
  mode: conservative
  follow_back_rate: 0.15
quota:
  backend: redis
  overrides:
    instagram.follow: 15
storage:
  data_dir: /tmp/growth
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "conservative", cfg.Growth.Mode)
	assert.Equal(t, 3, len(cfg.Growth.Platforms))
	assert.Equal(t, "redis", cfg.Quota.Backend)
	assert.Equal(t, 15, cfg.Quota.Overrides["instagram.follow"])
	assert.Equal(t, "/tmp/growth", cfg.Storage.DataDir)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GROWTH_MODE", "safe")
	t.Setenv("GROWTH_PLATFORMS", "twitter,linkedin")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "redis", cfg.Quota.Backend)
	assert.Equal(t, "safe", cfg.Growth.Mode)
	assert.Equal(t, []string{"twitter", "linkedin"}, cfg.Growth.Platforms)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
