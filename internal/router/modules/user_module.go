package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astroconnect/astroconnect-api/internal/container"
	handlers "github.com/astroconnect/astroconnect-api/internal/interface/http"
	"github.com/astroconnect/astroconnect-api/internal/interface/middleware"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// UserModule wires the session-protected user endpoints.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Users   middleware.PrincipalResolver
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, users middleware.PrincipalResolver) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Users: users}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT, m.Users))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/me", m.Handler.Me)
		auth.PUT("/password/update", m.Handler.UpdatePassword)
	}
}
