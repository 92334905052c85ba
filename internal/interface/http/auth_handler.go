package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/astroconnect/astroconnect-api/internal/application"
	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/pkg/response"
	"github.com/astroconnect/astroconnect-api/pkg/validation"

	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// OTPIssuer issues a registration one-time code. Satisfied by
// application.OTPService.
type OTPIssuer interface {
	Issue(ctx context.Context, email string) (string, error)
}

// AuthHandler serves the public credential endpoints: OTP issuance,
// registration, login, logout and password recovery.
type AuthHandler struct {
	Svc     *application.AuthService
	OTP     OTPIssuer
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, otp OTPIssuer, jwt *helpers.JWTManager, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, OTP: otp, JWT: jwt, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type registerRequest struct {
	Name       string `json:"name" binding:"required,max=30"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,pwd"`
	OTP        string `json:"otp" binding:"required,numeric"`
	ZodiacSign string `json:"zodiacSign"`
	BirthDate  string `json:"birthDate"`
	BirthTime  string `json:"birthTime"`
	BirthPlace string `json:"birthPlace"`
	Gender     string `json:"gender" binding:"omitempty,oneof=male female other"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	OTP             string `json:"otp" binding:"required,numeric"`
	Password        string `json:"password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// SendOTP issues a registration one-time code to the given address.
// POST /sendOTP
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if _, err := h.OTP.Issue(c.Request.Context(), req.Email); err != nil {
		h.Logger.WithError(err).WithField("email", req.Email).Error("otp issue failed")
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "OTP sent to "+entity.NormalizeEmail(req.Email)+" successfully", nil)
}

// Register verifies the submitted code and creates the account, then signs
// the caller in. POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	h.register(c, entity.RoleUser)
}

// RegisterAstrologer is the same flow with the astrologer role.
// POST /registerAsAstrologer
func (h *AuthHandler) RegisterAstrologer(c *gin.Context) {
	h.register(c, entity.RoleAstrologer)
}

func (h *AuthHandler) register(c *gin.Context, role entity.Role) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "invalid payload", map[string]string{"birthDate": "must be a date in YYYY-MM-DD format"})
			return
		}
		birthDate = &t
	}

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		OTP:        req.OTP,
		Role:       role,
		ZodiacSign: req.ZodiacSign,
		BirthDate:  birthDate,
		BirthTime:  req.BirthTime,
		BirthPlace: req.BirthPlace,
		Gender:     req.Gender,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, "Registered successfully", u)
}

// Login validates credentials and issues the session token.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperr.New(apperr.Validation, "Please enter the Email & Password both"))
		return
	}
	u, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, "Logged in successfully", u)
}

// Logout clears the session cookie. Bearer tokens issued earlier remain
// valid until expiry; there is no server-side revocation.
// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.ClearSession(c)
	response.OK(c, http.StatusOK, "Logged out", nil)
}

// ForgotPassword mails a time-limited recovery code.
// POST /password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.Logger.WithError(err).WithField("email", req.Email).Warn("forgot password failed")
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Email sent to "+entity.NormalizeEmail(req.Email)+" successfully", nil)
}

// ResetPassword redeems a recovery code for a new password and signs the
// user in. PUT /password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Password != req.ConfirmPassword {
		response.FromError(c, apperr.New(apperr.Validation, "Passwords do not match"))
		return
	}
	u, err := h.Svc.ResetPassword(c.Request.Context(), req.OTP, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, "Password updated successfully", u)
}

// sendToken delivers the session token on both channels: the HTTP-only
// cookie and the response body for bearer use.
func (h *AuthHandler) sendToken(c *gin.Context, status int, message string, u *entity.User) {
	token, exp, err := h.JWT.Generate(u.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", u.ID).Error("token generation failed")
		response.FromError(c, apperr.Wrap(apperr.Internal, "Internal server error", err))
		return
	}
	h.Cookies.SetSession(c, token, exp)
	response.OK(c, status, message, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       UserJSON(u),
	})
}
