package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
)

const (
	ContextIdentity = "identity"
	ContextUserID   = "user_id"
)

// SetIdentity stores the authenticated identity on the request.
func SetIdentity(c *gin.Context, identity *model.Identity) {
	c.Set(ContextIdentity, identity)
	c.Set(ContextUserID, identity.ID)
}

// CurrentIdentity returns the identity stored by the auth middleware.
func CurrentIdentity(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*model.Identity)
	return identity, ok && identity != nil
}

// RequireIdentity is CurrentIdentity for handlers mounted behind the auth
// middleware. A missing identity is recorded as a 401.
func RequireIdentity(c *gin.Context) (*model.Identity, bool) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("authentication required", nil))
		return nil, false
	}
	return identity, true
}

// Language picks the display language from ?lang= or Accept-Language.
// Anything that is not English renders in Spanish.
func Language(c *gin.Context) string {
	lang := c.Query("lang")
	if lang == "" {
		lang = c.GetHeader("Accept-Language")
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, rbac.LangEN) {
		return rbac.LangEN
	}
	return rbac.LangES
}

// BindError records a request binding failure for the error middleware.
func BindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
}
