package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-admin/internal/model"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestErrorHandler(t *testing.T) {
	require.NoError(t, RegisterValidation(DefaultValidationConfig()))

	engine := gin.New()
	engine.Use(ErrorHandler())
	engine.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("email already registered", nil))
	})
	engine.GET("/plain", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})
	engine.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"ok": true})
		_ = c.Error(assert.AnError)
	})
	engine.POST("/bind", func(c *gin.Context) {
		var req model.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err).SetType(gin.ErrorTypeBind)
			return
		}
		c.Status(http.StatusNoContent)
	})

	t.Run("app error keeps its status", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/app", nil))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already registered", decode(t, w).Message)
	})

	t.Run("unknown errors hide details", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/plain", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decode(t, w).Message)
	})

	t.Run("written responses are kept", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/written", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", decode(t, w).Message)
	})

	t.Run("validation errors list json fields", func(t *testing.T) {
		body := `{"email":"x@clinic.test","password":"longenough","firstName":"A","lastName":"B","role":"JANITOR"}`
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode(t, w)
		assert.Equal(t, "validation failed", resp.Message)
		errs := resp.Errors.([]interface{})
		require.Len(t, errs, 1)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "role", first["field"])
		assert.Equal(t, "Unknown role", first["message"])
	})

	t.Run("role tag accepts any case", func(t *testing.T) {
		body := `{"email":"x@clinic.test","password":"longenough","firstName":"A","lastName":"B","role":"specialist"}`
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := serve(engine, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 200))
	w = serve(engine, req)
	assert.Len(t, w.Body.String(), 36)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 2})
	engine := gin.New()
	engine.GET("/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS(DefaultCORSConfig([]string{"https://app.clinic.test"})))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.clinic.test")
	w := serve(engine, req)
	assert.Equal(t, "https://app.clinic.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.clinic.test")
	assert.Equal(t, http.StatusNoContent, serve(engine, req).Code)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = serve(engine, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	engine := gin.New()
	engine.Use(SecurityHeaders(DefaultSecurityConfig()))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", nil)
	engine := gin.New()
	engine.Use(Metrics(m))
	engine.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/users/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorTotal.WithLabelValues("GET", "/users/:id", "client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "unmatched", "404")))
}
