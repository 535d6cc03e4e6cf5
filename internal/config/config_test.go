package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromPath_Defaults(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultWatcherConfig(), cfg.Watcher)
	assert.Equal(t, DefaultBatchParseConfig(), cfg.Parse)
	assert.False(t, cfg.History.Enabled)
	assert.NotEmpty(t, cfg.History.Path)
	assert.Equal(t, DefaultHistoryKeep, cfg.History.Keep)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := writeConfig(t, `
watcher:
  retry_attempts: 5
  retry_delay: 1s
  debounce_duration: 250ms
  reload_timeout: 10s
  error_threshold: 2
parse:
  batch_size: 100
  progress_update_interval: 50ms
  enable_cancellation: false
history:
  enabled: true
  path: /tmp/pageview-test-history.db
log:
  level: debug
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Watcher.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Watcher.RetryDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Watcher.DebounceDuration)
	assert.Equal(t, 10*time.Second, cfg.Watcher.ReloadTimeout)
	assert.Equal(t, 2, cfg.Watcher.ErrorThreshold)
	assert.Equal(t, DefaultEventBuffer, cfg.Watcher.EventBuffer)
	assert.Equal(t, 100, cfg.Parse.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Parse.ProgressUpdateInterval)
	assert.False(t, cfg.Parse.EnableCancellation)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/pageview-test-history.db", cfg.History.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero batch size", "parse:\n  batch_size: 0\n"},
		{"negative retries", "watcher:\n  retry_attempts: -1\n"},
		{"zero threshold", "watcher:\n  error_threshold: 0\n"},
		{"bad level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromPath_MissingExplicitFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, filepath.Join(home, "x.db"), expandPath("~/x.db"))
}
