package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astroconnect/astroconnect-api/internal/container"
	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	handlers "github.com/astroconnect/astroconnect-api/internal/interface/http"
	"github.com/astroconnect/astroconnect-api/internal/interface/middleware"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// AdminModule wires endpoints restricted to the admin role.
type AdminModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Users   middleware.PrincipalResolver
}

func NewAdminModule(h *handlers.UserHandler, jwt *helpers.JWTManager, users middleware.PrincipalResolver) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt, Users: users}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(m.JWT, m.Users))
	admin.Use(middleware.RequireRoles(entity.NewRoleSet(entity.RoleAdmin)))
	admin.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		admin.GET("/users", m.Handler.ListUsers)
		admin.GET("/users/search", m.Handler.SearchUsers)
	}
}
