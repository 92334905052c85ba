package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/internal/domain/repository"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
	"github.com/astroconnect/astroconnect-api/pkg/mailer"
)

// CodeVerifier consumes a registration one-time code. Satisfied by
// OTPService.
type CodeVerifier interface {
	Verify(ctx context.Context, email, code string) error
}

// AuthService owns the credential lifecycle: OTP-gated registration,
// password login, recovery codes, and password updates.
type AuthService struct {
	Repo     repository.UserRepository
	OTP      CodeVerifier
	Mail     mailer.Dispatcher
	Gen      *helpers.OTPGenerator
	ResetTTL time.Duration
	Logger   *logrus.Logger
	Search   *UserSearch
}

func NewAuthService(repo repository.UserRepository, otp CodeVerifier, mail mailer.Dispatcher, resetTTL time.Duration, logger *logrus.Logger, search *UserSearch) *AuthService {
	return &AuthService{
		Repo:     repo,
		OTP:      otp,
		Mail:     mail,
		Gen:      &helpers.OTPGenerator{Digits: 5},
		ResetTTL: resetTTL,
		Logger:   logger,
		Search:   search,
	}
}

// RegisterInput is the profile captured at registration, alongside the
// one-time code proving control of the email address.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	OTP        string
	Role       entity.Role
	ZodiacSign string
	BirthDate  *time.Time
	BirthTime  string
	BirthPlace string
	Gender     string
}

// Register creates the user only after the one-time code checks out
// (deferred creation). A duplicate email surfaces as Conflict straight from
// the store's unique index; there is no check-then-insert.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := s.OTP.Verify(ctx, in.Email, in.OTP); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}

	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	u := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		ZodiacSign:   in.ZodiacSign,
		BirthDate:    in.BirthDate,
		BirthTime:    in.BirthTime,
		BirthPlace:   in.BirthPlace,
		Gender:       in.Gender,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	u.PasswordHash = ""

	s.Search.Index(ctx, u)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	}
	return u, nil
}

// Authenticate validates email/password. Both failure modes return the same
// Unauthenticated error, and the unknown-email path burns a bcrypt compare
// so its timing matches the wrong-password path.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmailWithPassword(ctx, email)
	if err != nil {
		helpers.BurnPasswordCompare(password)
		return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
	}
	u.PasswordHash = ""
	return u, nil
}

// ForgotPassword issues a recovery code: 5-digit numeric, 15-minute window.
// Only the SHA-256 digest is stored; the plaintext goes out by mail. A mail
// failure clears the stored state so the code cannot linger.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.Gen.Generate()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	expiresAt := time.Now().Add(s.ResetTTL)
	if err := s.Repo.SetResetCode(ctx, u.ID, hashResetCode(code), expiresAt); err != nil {
		return err
	}

	body := fmt.Sprintf("Your OTP for password reset is: %s. Use this OTP to reset your password. If you have not requested this email then please ignore it.", code)
	if err := s.Mail.Send(ctx, u.Email, "Password Recovery", body); err != nil {
		if clrErr := s.Repo.ClearResetCode(ctx, u.ID); clrErr != nil && s.Logger != nil {
			s.Logger.WithError(clrErr).WithField("user_id", u.ID).Warn("failed to clear reset code after mail failure")
		}
		return apperr.Wrap(apperr.Internal, "Failed to send recovery email", err)
	}
	return nil
}

// ResetPassword redeems a recovery code for a new password. Success requires
// a digest match and an unexpired window; the store clears the reset fields
// in the same statement either way the redemption resolves.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) (*entity.User, error) {
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	u, err := s.Repo.ConsumeResetCode(ctx, hashResetCode(code), hash)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.New(apperr.CodeInvalid, "Invalid OTP or OTP expired")
		}
		return nil, err
	}
	return u, nil
}

// UpdatePassword rotates the password of an authenticated principal after
// re-checking the old one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (*entity.User, error) {
	hash, err := s.Repo.GetPasswordHash(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(hash, oldPassword) {
		return nil, apperr.New(apperr.Unauthenticated, "Old password is incorrect")
	}
	newHash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	if err := s.Repo.UpdatePassword(ctx, userID, newHash); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, userID)
}

// GetProfile loads the principal's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// ListUsers returns every user. Admin only; enforced by the role gate.
func (s *AuthService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.ListAll(ctx)
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
