package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"farmTracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("FARM_JWT_SECRET", "secret")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "inmemory", cfg.Repository.Type)
	assert.Equal(t, "inmemory", cfg.Holds.Type)
	assert.Equal(t, 30*time.Minute, cfg.Registration.HoldTTL)
	assert.Equal(t, 30*time.Second, cfg.Trace.Timeout)
	assert.Equal(t, "Asia/Seoul", cfg.Tasks.Timezone)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":8080", cfg.GetServerAddr())
}

func TestLoadFile_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: "9000"
repository:
  type: postgres
database:
  url: postgres://from-file
holds:
  type: redis
registration:
  hold_ttl: 10m
auth:
  jwt_secret: file-secret
worker:
  enabled: true
  interval: 1m
`)
	t.Setenv("FARM_DATABASE_URL", "postgres://from-env")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, "postgres", cfg.Repository.Type)
	assert.Equal(t, "postgres://from-env", cfg.Database.URL)
	assert.Equal(t, "redis", cfg.Holds.Type)
	assert.Equal(t, 10*time.Minute, cfg.Registration.HoldTTL)
	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, time.Minute, cfg.Worker.Interval)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "postgres without url", body: "repository:\n  type: postgres\nauth:\n  jwt_secret: s\n"},
		{name: "unknown repository", body: "repository:\n  type: mongo\nauth:\n  jwt_secret: s\n"},
		{name: "unknown holds", body: "holds:\n  type: memcached\nauth:\n  jwt_secret: s\n"},
		{name: "missing secret", body: "server:\n  port: \"1\"\n"},
		{name: "bad timezone", body: "tasks:\n  timezone: Mars/Base\nauth:\n  jwt_secret: s\n"},
		{name: "broken yaml", body: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
