package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 0, ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "app.db"),
		},
		Generator: config.GeneratorConfig{APIKey: "test-key"},
		Worker:    config.WorkerConfig{GeneralPoolSize: 8, SynthesisPoolSize: 2},
	}
}

func TestBootstrap_SQLite(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := Bootstrap(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	require.NotNil(t, app.Router)
	require.NotNil(t, app.DB.Store)
	require.Nil(t, app.DB.RiverClient, "sqlite deployments run without river")

	// Start is a no-op without river but must not fail.
	require.NoError(t, app.Start(context.Background()))

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBootstrap_RequiresGeneratorKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generator.APIKey = ""

	_, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err)
}
