package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.False(t, cfg.Remote.Enabled)
	assert.True(t, cfg.Features.Gamification)
	assert.True(t, cfg.Features.Chat)
	assert.Equal(t, 5, cfg.Scheduler.NoticeTTL)
	assert.Equal(t, "info", cfg.Log.GetLevel())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
storage:
  driver: memory
features:
  chat: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("HELPROJECTS_SCHEDULER_NOTICE_TTL", "12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Features.Chat)
	assert.True(t, cfg.Features.Gamification)
	assert.Equal(t, 12, cfg.Scheduler.NoticeTTL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRemoteModeRequiresOwnSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HELPROJECTS_REMOTE_ENABLED", "true")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrDefaultJWTSecret)

	t.Setenv("HELPROJECTS_REMOTE_JWT_SECRET", "s3cret-for-tests")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Remote.Enabled)
	assert.Equal(t, "s3cret-for-tests", cfg.Remote.JWTSecret)
}
