package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdesk/internal/config"
	"workdesk/internal/services"
	"workdesk/internal/store"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func sqliteConfig(t *testing.T) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Server.Mode = gin.TestMode
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "desk.db")
	return cfg
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Version: dev")
}

func TestOpenDatabase(t *testing.T) {
	cfg := sqliteConfig(t)
	db, err := openDatabase(cfg, quiet())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Dialector.Name())

	cfg.Database.Driver = "oracle"
	_, err = openDatabase(cfg, quiet())
	assert.Error(t, err)
}

func TestSetupRouter(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Security.RateLimiting.Enabled = false
	db, err := openDatabase(cfg, quiet())
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	router := setupRouter(cfg, db, services.NewNotificationHub(quiet()), quiet())
	for _, path := range []string{"/health", "/metrics", "/api/v1/automation-rules"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
