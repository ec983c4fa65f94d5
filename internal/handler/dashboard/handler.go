package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/dashboard"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
)

type Handler struct {
	svc *dashboard.Service
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	d := r.Group("/dashboard")
	{
		d.GET("/menu", h.Menu)
		d.GET("/modules/:key", h.Module)
	}
}

// ModuleResponse is a module the caller is allowed to open.
type ModuleResponse struct {
	dashboard.MenuItem
	Permissions []model.Permission `json:"permissions"`
}

func (h *Handler) Menu(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.svc.Menu(identity.Role, handler.Language(c))))
}

func (h *Handler) Module(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	m, err := h.svc.Resolve(identity.Role, c.Param("key"))
	switch {
	case errors.Is(err, dashboard.ErrModuleNotFound):
		_ = c.Error(apperrors.NotFound("module", err))
		return
	case errors.Is(err, dashboard.ErrModuleForbidden):
		_ = c.Error(apperrors.Forbidden("module not available for your role", err))
		return
	case err != nil:
		_ = c.Error(apperrors.Internal(err))
		return
	}

	perms := m.Permissions
	if perms == nil {
		perms = []model.Permission{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ModuleResponse{
		MenuItem:    m.Item(handler.Language(c)),
		Permissions: perms,
	}))
}
