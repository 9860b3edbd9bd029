package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24, cfg.SLA.CriticalHours)
	assert.Equal(t, 120, cfg.SLA.LowHours)
	assert.False(t, cfg.Lifecycle.AllowForce)
	assert.Equal(t, 5*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
}

func TestLoadFrom_YAMLAndEnvOverride(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
database:
  driver: sqlite
  name: /tmp/desk.db
sla:
  critical_hours: 8
lifecycle:
  allow_force: true
notification:
  timeout: 250ms
`)))
	t.Setenv("WORKDESK_SERVER_PORT", "9191")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/desk.db", cfg.Database.ConnectionString())
	assert.Equal(t, 8, cfg.SLA.CriticalHours)
	assert.Equal(t, 48, cfg.SLA.HighHours)
	assert.True(t, cfg.Lifecycle.AllowForce)
	assert.Equal(t, 250*time.Millisecond, cfg.Notification.Timeout)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := GetDefaultConfig().Database
	assert.Contains(t, d.ConnectionString(), "host=localhost port=5432")
	assert.Contains(t, d.ConnectionString(), "dbname=workdesk")

	d.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", d.ConnectionString())
}

func TestInitLogger_FileOutput(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	cfg.Log.Output = "file"
	cfg.Log.FilePath = filepath.Join(t.TempDir(), "logs", "workdesk.log")

	logger, err := InitLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	})

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.DirExists(t, filepath.Dir(cfg.Log.FilePath))
}
