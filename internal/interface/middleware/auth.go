package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
	"github.com/astroconnect/astroconnect-api/pkg/response"
)

const (
	// CtxUserKey holds the resolved *entity.User for downstream handlers.
	CtxUserKey = "authUser"
	// CtxUserIDKey holds the principal's id as a string.
	CtxUserIDKey = "userID"
)

// PrincipalResolver loads the user a validated token refers to.
type PrincipalResolver interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// Auth authenticates the request: token from the session cookie, falling
// back to an Authorization bearer header; validate signature and expiry;
// resolve the principal from the store. A structurally valid token whose
// user no longer exists fails closed. On success the principal is attached
// to the context.
func Auth(jwt *helpers.JWTManager, users PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.AbortFromError(c, apperr.New(apperr.Unauthenticated, "Please login to access this resource"))
			return
		}

		claims, err := jwt.Parse(token)
		if err != nil {
			response.AbortFromError(c, err)
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				err = apperr.New(apperr.Unauthenticated, "User not found")
			}
			response.AbortFromError(c, err)
			return
		}

		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(helpers.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// RequireRoles authorizes the already-authenticated principal against an
// enumerated role set. Must run after Auth.
func RequireRoles(allowed entity.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := PrincipalFrom(c)
		if u == nil {
			response.AbortFromError(c, apperr.New(apperr.Unauthenticated, "Please login to access this resource"))
			return
		}
		if !allowed.Contains(u.Role) {
			msg := fmt.Sprintf("Role: %s is not allowed to access this resource", u.Role)
			response.AbortFromError(c, apperr.New(apperr.Forbidden, msg))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated user attached by Auth, or nil.
func PrincipalFrom(c *gin.Context) *entity.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}
