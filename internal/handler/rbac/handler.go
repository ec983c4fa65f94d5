package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	rbacService "github.com/jwalitptl/clinic-admin/internal/service/rbac"
)

// Handler exposes the static role table.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/roles", h.ListRoles)
	r.GET("/roles/me", h.MyPermissions)
}

// ListRoles returns every role with its label, color and permissions.
func (h *Handler) ListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rbacService.Describe(handler.Language(c))))
}

// MyPermissions answers the permission queries for the caller's stored role.
func (h *Handler) MyPermissions(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	lang := handler.Language(c)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rbacService.RoleInfo{
		Role:        identity.Role,
		Label:       rbacService.Label(identity.Role, lang),
		Color:       rbacService.Color(identity.Role),
		Permissions: rbacService.PermissionsFor(identity.Role),
		AllAccess:   rbacService.IsSuperAdmin(identity.Role),
	}))
}
