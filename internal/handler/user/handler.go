package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
)

type Handler struct {
	service user.UserServicer
}

func NewHandler(service user.UserServicer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the administrative user endpoints. The caller guards
// r with the manage permissions; the service enforces per-role rules.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id/active", h.SetActive)
		users.PATCH("/:id/role", h.ChangeRole)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	created, err := h.service.CreateUser(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetUser(c *gin.Context) {
	actor, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	identity, err := h.service.GetUser(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(identity))
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindError(c, err)
		return
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{
		Items:    users,
		Total:    total,
		Page:     page,
		PageSize: filter.Limit(),
	}))
}

func (h *Handler) SetActive(c *gin.Context) {
	actor, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	updated, err := h.service.SetActive(c.Request.Context(), actor, id, *req.Active)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ChangeRole(c *gin.Context) {
	actor, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	updated, err := h.service.ChangeRole(c.Request.Context(), actor, id, req.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid user ID", err))
		return uuid.Nil, false
	}
	return id, true
}
