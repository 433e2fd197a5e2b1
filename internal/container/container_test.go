package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"trustdebt/internal"
	"trustdebt/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.DefaultEngine(),
		Server: config.ServerConfig{Port: "8080", GinMode: gin.TestMode},
		Log:    config.LogConfig{Level: "ERROR", Mode: "development"},
	}
}

func TestSettingsFrom(t *testing.T) {
	engine := config.DefaultEngine()
	engine.GradeBoundaries = "A:10,B:inf"
	engine.MaxIterations = 3

	settings, err := SettingsFrom(engine)
	require.NoError(t, err)
	assert.Equal(t, "A:10,B:inf", settings.Boundaries.String())
	assert.Equal(t, 3, settings.Balancer.MaxIterations)
	assert.Equal(t, engine.VisibilityScale, settings.VisibilityScale)

	engine.GradeBoundaries = "A:10"
	_, err = SettingsFrom(engine)
	assert.Error(t, err)
}

func TestNew_WiresServicesWithoutDatabase(t *testing.T) {
	c, err := New(testConfig(), internal.NewNopLogger())
	require.NoError(t, err)

	assert.Nil(t, c.History)
	assert.NotNil(t, c.Assessments)
	assert.NotNil(t, c.Batch)

	router := c.Router()
	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	// history routes exist but answer 404 until a database is attached
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/p/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err = New(nil, nil)
	assert.Error(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
	assert.NoError(t, c.Shutdown(context.Background()))
}
