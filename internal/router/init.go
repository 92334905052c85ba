package router

import (
	"github.com/astroconnect/astroconnect-api/internal/application"
	"github.com/astroconnect/astroconnect-api/internal/container"
	pginfra "github.com/astroconnect/astroconnect-api/internal/infrastructure/postgres"
	handlers "github.com/astroconnect/astroconnect-api/internal/interface/http"
	"github.com/astroconnect/astroconnect-api/internal/router/modules"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// InitModules builds the application services from the container singletons
// and registers the feature modules. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	repo := pginfra.NewUserRepository(container.GetPGPool())
	search := application.NewUserSearch(container.GetES(), cfg.ESUsersIndex, container.GetLogger())
	otp := application.NewOTPService(
		container.GetRedis(),
		helpers.NewOTPGenerator(cfg.OTPDigits),
		container.GetMailer(),
		cfg.OTPTTL,
		container.GetLogger(),
	)
	svc := application.NewAuthService(repo, otp, container.GetMailer(), cfg.ResetCodeTTL, container.GetLogger(), search)

	authHandler := handlers.NewAuthHandler(svc, otp, container.GetJWT(), container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc, container.GetJWT(), container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT(), repo))
	r.Add(modules.NewAdminModule(userHandler, container.GetJWT(), repo))
}
