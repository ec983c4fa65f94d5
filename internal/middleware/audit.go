package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-admin/internal/service/audit"
)

// AuditContext attaches the client address and user agent to the request
// context so audit entries written further down carry them.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClient(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
