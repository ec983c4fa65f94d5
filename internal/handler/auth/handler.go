package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/model"
)

// Service is the subset of the auth service the handler drives.
type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error)
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID)
	Me(ctx context.Context, userID uuid.UUID) (*model.Identity, error)
	CompleteProfile(ctx context.Context, userID uuid.UUID, req *model.CompleteProfileRequest) (*model.Identity, error)
	UpdateSelf(ctx context.Context, userID uuid.UUID, req *model.UpdateSelfRequest) (*model.Identity, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterRoutes mounts the endpoints that act on the caller's own identity.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.Me)
		auth.PUT("/me", h.UpdateMe)
		auth.POST("/logout", h.Logout)
		auth.POST("/complete-profile", h.CompleteProfile)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) Logout(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	h.svc.Logout(c.Request.Context(), identity.ID)
	c.JSON(http.StatusOK, handler.NewMessageResponse("logged out successfully"))
}

func (h *Handler) Me(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	fresh, err := h.svc.Me(c.Request.Context(), identity.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(fresh))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	var req model.UpdateSelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	updated, err := h.svc.UpdateSelf(c.Request.Context(), identity.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) CompleteProfile(c *gin.Context) {
	identity, ok := handler.RequireIdentity(c)
	if !ok {
		return
	}

	var req model.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	updated, err := h.svc.CompleteProfile(c.Request.Context(), identity.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}
