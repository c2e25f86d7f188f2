package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "sangam-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)

	require.True(t, cfg.Scheduler.Enabled)
	require.Equal(t, "@every 30m", cfg.Scheduler.ScanSchedule)
	require.Equal(t, 30, cfg.Scheduler.AuditRetentionDays)
	// Untouched keys keep their defaults.
	require.Equal(t, "@daily", cfg.Scheduler.AuditSchedule)

	require.Equal(t, "/tmp/sangam-uploads", cfg.Uploads.Dir)
	require.Equal(t, "/media", cfg.Uploads.BaseURL)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.True(t, cfg.Monitoring.Health.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "@hourly", cfg.Scheduler.ScanSchedule)
	require.Equal(t, 90, cfg.Scheduler.AuditRetentionDays)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestConfigureLoggingDefaultsToInfo(t *testing.T) {
	require.NoError(t, ConfigureLogging(""))
	require.NoError(t, ConfigureLogging("debug"))
}
