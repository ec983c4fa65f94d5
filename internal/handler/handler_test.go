package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-admin/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLivenessCheck(t *testing.T) {
	w := get(newEngine(NewHandler(prometheus.NewRegistry(), nil)), "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return assert.AnError }

	w := get(newEngine(NewHandler(nil, map[string]Check{"database": ok})), "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newEngine(NewHandler(nil, map[string]Check{"database": ok, "redis": down})), "/api/v1/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	checks := resp.Data.(map[string]interface{})["checks"].(map[string]interface{})
	assert.Equal(t, "UP", checks["database"])
	assert.Equal(t, "DOWN", checks["redis"])
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(counter)
	counter.Inc()

	w := get(newEngine(NewHandler(reg, nil)), "/api/v1/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "probe_total 1")
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		query, header, want string
	}{
		{"", "", "es"},
		{"en", "", "en"},
		{"", "en-US,en;q=0.9", "en"},
		{"", "fr-FR", "es"},
		{"es", "en-US", "es"},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?lang="+tt.query, nil)
		if tt.header != "" {
			c.Request.Header.Set("Accept-Language", tt.header)
		}
		assert.Equal(t, tt.want, Language(c), "query=%q header=%q", tt.query, tt.header)
	}
}

func TestIdentityContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := CurrentIdentity(c)
	assert.False(t, ok)
	_, ok = RequireIdentity(c)
	assert.False(t, ok)
	require.Len(t, c.Errors, 1)

	identity := &model.Identity{ID: uuid.New(), Role: model.RoleAdmin}
	SetIdentity(c, identity)
	got, ok := CurrentIdentity(c)
	require.True(t, ok)
	assert.Same(t, identity, got)
	assert.Equal(t, identity.ID, c.MustGet(ContextUserID))
}
