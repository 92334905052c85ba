package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
	"github.com/astroconnect/astroconnect-api/pkg/mailer"
)

func keyRegisterOTP(email string) string { return "register:otp:" + email }

// CodeStore is the slice of the code cache the OTP service needs. Get reports
// absence (never stored, or expired and purged) separately from faults.
type CodeStore interface {
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (code string, ok bool, err error)
	Del(ctx context.Context, key string) error
}

// redisCodeStore backs CodeStore with Redis; expiry is delegated to the TTL.
type redisCodeStore struct {
	rdb *redis.Client
}

func (s redisCodeStore) Set(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, code, ttl).Err()
}

func (s redisCodeStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s redisCodeStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// OTPService issues and verifies registration one-time codes. Codes live in
// the store under a TTL, one per email; issuing again replaces the previous
// code.
type OTPService struct {
	Store  CodeStore
	Gen    *helpers.OTPGenerator
	Mail   mailer.Dispatcher
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewOTPService(rdb *redis.Client, gen *helpers.OTPGenerator, mail mailer.Dispatcher, ttl time.Duration, logger *logrus.Logger) *OTPService {
	return &OTPService{Store: redisCodeStore{rdb: rdb}, Gen: gen, Mail: mail, TTL: ttl, Logger: logger}
}

// Issue generates a fresh code for the email, stores it with the configured
// TTL and dispatches it by mail. If dispatch fails the stored code is removed
// again, so a later retry cannot be satisfied by a code nobody received.
func (s *OTPService) Issue(ctx context.Context, email string) (string, error) {
	email = entity.NormalizeEmail(email)
	code, err := s.Gen.Generate()
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	key := keyRegisterOTP(email)
	if err := s.Store.Set(ctx, key, code, s.TTL); err != nil {
		return "", apperr.Wrap(apperr.Internal, "Internal server error", err)
	}

	body := fmt.Sprintf("Your verification code is: %s. It expires in %d minutes. If you did not request this email then please ignore it.",
		code, int(s.TTL.Minutes()))
	if err := s.Mail.Send(ctx, email, "Email Verification", body); err != nil {
		if delErr := s.Store.Del(ctx, key); delErr != nil && s.Logger != nil {
			s.Logger.WithError(delErr).WithField("email", email).Warn("failed to roll back otp after mail failure")
		}
		return "", apperr.Wrap(apperr.Internal, "Failed to send verification email", err)
	}
	return code, nil
}

// Verify consumes the live code for the email. An absent code (never issued,
// or expired and purged by the store) and a mismatched code are reported the
// same way; a match deletes the code so it is single use. Failed attempts
// have no side effect beyond the code entry itself.
func (s *OTPService) Verify(ctx context.Context, email, submitted string) error {
	email = entity.NormalizeEmail(email)
	key := keyRegisterOTP(email)
	stored, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	if !ok {
		return apperr.New(apperr.CodeInvalid, "Invalid or expired OTP")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return apperr.New(apperr.CodeInvalid, "Invalid or expired OTP")
	}
	if err := s.Store.Del(ctx, key); err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	return nil
}
