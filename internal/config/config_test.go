// SPDX-License-Identifier: MIT

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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "/var/lib/meetscribe/meetings.db", cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, int64(256<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 120, cfg.RateLimitRPM)
	assert.Empty(t, cfg.WatchDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
data_dir: /tmp/meetscribe-test
store_backend: memory
log_level: debug
watch_dir: /tmp/inbox
poll_interval: 10s
rate_limit_rpm: 30
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/meetscribe-test", cfg.DataDir)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/inbox", cfg.WatchDir)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.RateLimitRPM)
	// memory backend derives no store path
	assert.Empty(t, cfg.StorePath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0o600))

	t.Setenv("MEETSCRIBE_LISTEN", ":7070")
	t.Setenv("MEETSCRIBE_STORE_BACKEND", "memory")
	t.Setenv("MEETSCRIBE_POLL_INTERVAL", "2s")
	t.Setenv("MEETSCRIBE_RATE_LIMIT_RPM", "0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.RateLimitRPM)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty listen", "listen: \"\"\n"},
		{"unknown backend", "store_backend: etcd\n"},
		{"zero poll interval", "poll_interval: 0s\n"},
		{"negative upload limit", "max_upload_bytes: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParseHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("MEETSCRIBE_TEST_INT", "not-a-number")
	assert.Equal(t, 42, ParseInt("MEETSCRIBE_TEST_INT", 42))

	t.Setenv("MEETSCRIBE_TEST_DUR", "soon")
	assert.Equal(t, time.Minute, ParseDuration("MEETSCRIBE_TEST_DUR", time.Minute))

	t.Setenv("MEETSCRIBE_TEST_STR", "value")
	assert.Equal(t, "value", ParseString("MEETSCRIBE_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", ParseString("MEETSCRIBE_TEST_UNSET", "fallback"))
}
