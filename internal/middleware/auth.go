package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
	"github.com/jwalitptl/clinic-admin/internal/service/identity"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	"github.com/jwalitptl/clinic-admin/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

type AuthMiddleware struct {
	jwt        auth.JWTService
	identities identity.Resolver
	metrics    *metrics.Metrics
}

func NewAuthMiddleware(jwt auth.JWTService, identities identity.Resolver, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:        jwt,
		identities: identities,
		metrics:    m,
	}
}

// Authenticate verifies the bearer token and re-validates it against the
// stored identity. A disabled account or a token whose role no longer matches
// the stored role is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWith(c, apperrors.Unauthorized(err.Error(), nil))
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token expired"
			}
			abortWith(c, apperrors.Unauthorized(msg, err))
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abortWith(c, apperrors.Unauthorized("invalid token subject", err))
			return
		}

		current, err := m.identities.Get(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				abortWith(c, apperrors.Unauthorized("account no longer exists", err))
				return
			}
			abortWith(c, apperrors.Internal(err))
			return
		}

		if !current.IsActive {
			abortWith(c, apperrors.Unauthorized("account is inactive", model.ErrAccountInactive))
			return
		}
		if current.Role != claims.Role {
			log.Debug().
				Str("user_id", userID.String()).
				Str("token_role", claims.Role.String()).
				Str("stored_role", current.Role.String()).
				Msg("Stale role in token")
			abortWith(c, apperrors.Unauthorized("token is stale, sign in again", nil))
			return
		}

		handler.SetIdentity(c, current)
		c.Next()
	}
}

// RequirePermission admits the request when the stored role holds any of
// perms. It must run after Authenticate.
func (m *AuthMiddleware) RequirePermission(perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := handler.CurrentIdentity(c)
		if !ok {
			abortWith(c, apperrors.Unauthorized("authentication required", nil))
			return
		}

		allowed := rbac.HasAnyPermission(current.Role, perms...)
		m.observe(current.Role, allowed)
		if !allowed {
			abortWith(c, apperrors.Forbidden("permission denied", nil))
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) observe(role model.Role, allowed bool) {
	if m.metrics == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.metrics.PermissionDecisions.WithLabelValues(role.String(), outcome).Inc()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// abortWith records err for ErrorHandler and stops the chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
