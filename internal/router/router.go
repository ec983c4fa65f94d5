package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/middleware"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also serves routes that need no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	auth       *middleware.AuthMiddleware
	h          *handler.Handler
	authH      PublicHandler
	userH      Handler
	rbacH      Handler
	dashboardH Handler
	auditH     Handler
	limiter    *middleware.RateLimiter
}

type RouterConfig struct {
	Mode       string
	RateLimit  middleware.RateLimiterConfig
	RateLimits bool
	CORSConfig middleware.CORSConfig
	Security   middleware.SecurityConfig
	Metrics    *metrics.Metrics
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH PublicHandler,
	userH Handler,
	rbacH Handler,
	dashboardH Handler,
	auditH Handler,
	config RouterConfig,
) (*Router, error) {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	if err := middleware.RegisterValidation(middleware.DefaultValidationConfig()); err != nil {
		return nil, err
	}

	engine := gin.New()

	r := &Router{
		engine:     engine,
		auth:       auth,
		h:          h,
		authH:      authH,
		userH:      userH,
		rbacH:      rbacH,
		dashboardH: dashboardH,
		auditH:     auditH,
	}
	if config.RateLimits {
		r.limiter = middleware.NewRateLimiter(config.RateLimit)
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.AuditContext(),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
	})

	r.setup()
	return r, nil
}

func (r *Router) setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.h.RegisterRoutes(api)

	public := api.Group("")
	if r.limiter != nil {
		public.Use(r.limiter.RateLimit())
	}
	r.authH.RegisterPublicRoutes(public)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)
	r.rbacH.RegisterRoutes(rg)
	r.dashboardH.RegisterRoutes(rg)

	admin := rg.Group("")
	admin.Use(r.auth.RequirePermission(
		model.PermManageUsers,
		model.PermManageSpecialists,
		model.PermManageAdmins,
	))
	r.userH.RegisterRoutes(admin)

	reports := rg.Group("")
	reports.Use(r.auth.RequirePermission(model.PermViewReports))
	r.auditH.RegisterRoutes(reports)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
