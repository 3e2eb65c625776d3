package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("NP_TEST_HOST", "db.internal")

	tests := []struct {
		in   string
		want string
	}{
		{"host: ${NP_TEST_HOST}", "host: db.internal"},
		{"host: ${NP_TEST_HOST:localhost}", "host: db.internal"},
		{"port: ${NP_TEST_MISSING:5432}", "port: 5432"},
		{"password: ${NP_TEST_MISSING:}", "password: "},
		{"raw: ${NP_TEST_MISSING}", "raw: ${NP_TEST_MISSING}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnv(tt.in), "input %q", tt.in)
	}
}

func TestLoadFrom_DefaultsWithoutFiles(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "novel-platform-api", cfg.App.Name)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.PublishInterval)
	assert.Equal(t, 60, cfg.Security.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimit.Window)
	assert.Equal(t, 30*time.Second, cfg.Cache.AdminStatsTTL)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
}

func TestLoadFrom_FileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	base := []byte(`
app:
  env: staging
scheduler:
  publish_interval: ${NP_TEST_INTERVAL:2m}
cache:
  admin_stats_ttl: 0s
`)
	overlay := []byte(`
server:
  http:
    port: 9090
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), base, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), overlay, 0o600))

	t.Setenv("APP_ENV", "staging")
	t.Setenv("NP_TEST_INTERVAL", "90s")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.PublishInterval)
	assert.Equal(t, time.Duration(0), cfg.Cache.AdminStatsTTL)
	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.App.Env = "production"
	cfg.Security.JWT.Secret = defaultJWTSecret
	cfg.Scheduler.PublishInterval = time.Minute
	assert.Error(t, cfg.Validate())

	cfg.Security.JWT.Secret = "a-real-secret"
	assert.NoError(t, cfg.Validate())

	cfg.Scheduler.PublishInterval = 0
	assert.Error(t, cfg.Validate())

	cfg.Scheduler.PublishInterval = time.Minute
	cfg.Security.RateLimit = RateLimitConfig{Enabled: true, Requests: 0, Window: time.Minute}
	assert.Error(t, cfg.Validate())
}
