package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astroconnect/astroconnect-api/internal/container"
	handlers "github.com/astroconnect/astroconnect-api/internal/interface/http"
	"github.com/astroconnect/astroconnect-api/internal/interface/middleware"
)

// AuthModule wires the public credential endpoints.
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	otpLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	forgotLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/sendOTP", otpLimiter, m.Handler.SendOTP)
	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/registerAsAstrologer", registerLimiter, m.Handler.RegisterAstrologer)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/password/forgot", forgotLimiter, m.Handler.ForgotPassword)
	rg.PUT("/password/reset", resetLimiter, m.Handler.ResetPassword)
	rg.GET("/logout", m.Handler.Logout)
}
