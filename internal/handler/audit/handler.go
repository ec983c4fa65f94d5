package audit

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/model"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
)

// Service lists stored audit entries.
type Service interface {
	List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, int64, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/logs/user/:id", h.GetUserLogs)
	}
}

type listQuery struct {
	model.Pagination
	UserID     string `form:"user_id"`
	EntityID   string `form:"entity_id"`
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
}

func (h *Handler) ListLogs(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.BindError(c, err)
		return
	}

	filter := &model.AuditFilter{
		Pagination: q.Pagination,
		Action:     q.Action,
		EntityType: q.EntityType,
	}
	var ok bool
	if filter.UserID, ok = optionalID(c, q.UserID, "user_id"); !ok {
		return
	}
	if filter.EntityID, ok = optionalID(c, q.EntityID, "entity_id"); !ok {
		return
	}

	h.list(c, filter)
}

func (h *Handler) GetUserLogs(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid user_id", err))
		return
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		handler.BindError(c, err)
		return
	}

	h.list(c, &model.AuditFilter{Pagination: page, UserID: &userID})
}

func (h *Handler) list(c *gin.Context, filter *model.AuditFilter) {
	logs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{
		Items:    logs,
		Total:    total,
		Page:     page,
		PageSize: filter.Limit(),
	}))
}

func optionalID(c *gin.Context, raw, name string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid "+name, err))
		return nil, false
	}
	return &id, true
}
