package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/astroconnect/astroconnect-api/internal/application"
	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/internal/interface/middleware"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
	"github.com/astroconnect/astroconnect-api/pkg/response"
	"github.com/astroconnect/astroconnect-api/pkg/validation"
)

// UserHandler serves the session-protected user endpoints.
type UserHandler struct {
	Svc     *application.AuthService
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewUserHandler(svc *application.AuthService, jwt *helpers.JWTManager, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, JWT: jwt, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type updatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// Me returns the authenticated principal's profile.
// GET /me
func (h *UserHandler) Me(c *gin.Context) {
	u := middleware.PrincipalFrom(c)
	if u == nil {
		response.FromError(c, apperr.New(apperr.Unauthenticated, "Please login to access this resource"))
		return
	}
	response.OK(c, http.StatusOK, "profile", gin.H{"user": UserJSON(u)})
}

// UpdatePassword rotates the principal's password and re-issues the session
// token, matching the original contract.
// PUT /password/update
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	u := middleware.PrincipalFrom(c)
	if u == nil {
		response.FromError(c, apperr.New(apperr.Unauthenticated, "Please login to access this resource"))
		return
	}
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		response.FromError(c, apperr.New(apperr.Validation, "Passwords don't match"))
		return
	}
	updated, err := h.Svc.UpdatePassword(c.Request.Context(), u.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		response.FromError(c, err)
		return
	}

	token, exp, err := h.JWT.Generate(updated.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", updated.ID).Error("token generation failed")
		response.FromError(c, apperr.Wrap(apperr.Internal, "Internal server error", err))
		return
	}
	h.Cookies.SetSession(c, token, exp)
	response.OK(c, http.StatusOK, "Password updated successfully", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       UserJSON(updated),
	})
}

// ListUsers returns every registered user. Admin only.
// GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, UserJSON(u))
	}
	response.OK(c, http.StatusOK, "users", gin.H{"users": out, "count": len(out)})
}

// SearchUsers queries the Elasticsearch mirror of user profiles. Admin only.
// GET /admin/users/search?q=...
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.FromError(c, apperr.New(apperr.Validation, "Query parameter q is required"))
		return
	}
	hits, err := h.Svc.Search.Query(c.Request.Context(), q, 20)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "search results", gin.H{"users": hits, "count": len(hits)})
}

// UserJSON serializes a user for responses. The password hash and reset
// fields never appear here.
func UserJSON(u *entity.User) gin.H {
	out := gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"zodiacSign": u.ZodiacSign,
		"birthTime":  u.BirthTime,
		"birthPlace": u.BirthPlace,
		"gender":     u.Gender,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
	if u.BirthDate != nil {
		out["birthDate"] = u.BirthDate.Format("2006-01-02")
	}
	if u.Role == entity.RoleAstrologer {
		out["astrologerRating"] = u.AstrologerRating
		out["astrologerSkills"] = u.AstrologerSkills
		out["astrologerExperience"] = u.AstrologerExperience
		out["astrologerStatus"] = u.AstrologerStatus
		out["astrologerPrice"] = gin.H{"chatFees": u.ChatFees, "videoCallFees": u.VideoCallFees}
	}
	return out
}
