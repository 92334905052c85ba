package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/astroconnect/astroconnect-api/internal/application"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// fakeCodeStore is an in-memory CodeStore recording the TTLs it was given.
type fakeCodeStore struct {
	codes map[string]string
	ttls  map[string]time.Duration

	setErr error
	getErr error
	delErr error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *fakeCodeStore) Set(_ context.Context, key, code string, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.codes[key] = code
	s.ttls[key] = ttl
	return nil
}

func (s *fakeCodeStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	code, ok := s.codes[key]
	return code, ok, nil
}

func (s *fakeCodeStore) Del(_ context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.codes, key)
	delete(s.ttls, key)
	return nil
}

func newOTPService(store *fakeCodeStore, mail *fakeDispatcher) *application.OTPService {
	if mail == nil {
		mail = okDispatcher()
	}
	return &application.OTPService{
		Store: store,
		Gen:   helpers.NewOTPGenerator(4),
		Mail:  mail,
		TTL:   5 * time.Minute,
	}
}

const otpKey = "register:otp:asha@example.com"

// ---- Issue ----

func TestOTPIssue_StoresAndMailsSameCode(t *testing.T) {
	store := newFakeCodeStore()
	var mailedTo, mailedBody string
	mail := &fakeDispatcher{send: func(_ context.Context, to, _, body string) error {
		mailedTo = to
		mailedBody = body
		return nil
	}}

	code, err := newOTPService(store, mail).Issue(context.Background(), "Asha@Example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 4 {
		t.Errorf("code %q should be 4 digits", code)
	}
	if mailedTo != "asha@example.com" {
		t.Errorf("mailed to %q, want normalized address", mailedTo)
	}
	if !strings.Contains(mailedBody, code) {
		t.Errorf("mail body %q does not carry the code %q", mailedBody, code)
	}
	if store.codes[otpKey] != code {
		t.Errorf("stored code %q != issued code %q", store.codes[otpKey], code)
	}
	if store.ttls[otpKey] != 5*time.Minute {
		t.Errorf("stored TTL = %v, want the configured window", store.ttls[otpKey])
	}
}

func TestOTPIssue_ReplacesPreviousCode(t *testing.T) {
	store := newFakeCodeStore()
	svc := newOTPService(store, nil)

	first, err := svc.Issue(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := svc.Issue(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	if store.codes[otpKey] != second {
		t.Errorf("stored code %q, want the latest issue %q", store.codes[otpKey], second)
	}
	if first != second && svc.Verify(context.Background(), "asha@example.com", first) == nil {
		t.Error("a replaced code must not verify")
	}
}

func TestOTPIssue_MailFailureRollsBackStoredCode(t *testing.T) {
	store := newFakeCodeStore()
	mail := &fakeDispatcher{send: func(context.Context, string, string, string) error {
		return errors.New("mailgun down")
	}}

	_, err := newOTPService(store, mail).Issue(context.Background(), "asha@example.com")
	if err == nil {
		t.Fatal("expected error when mail dispatch fails")
	}
	if apperr.MessageOf(err) != "Failed to send verification email" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
	if _, ok := store.codes[otpKey]; ok {
		t.Error("stored code must be removed after a mail failure")
	}
}

// ---- Verify ----

func TestOTPVerify_AcceptsExactlyOnce(t *testing.T) {
	store := newFakeCodeStore()
	svc := newOTPService(store, nil)

	code, err := svc.Issue(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.Verify(context.Background(), "asha@example.com", code); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if _, ok := store.codes[otpKey]; ok {
		t.Error("code must be deleted on successful verification")
	}

	err = svc.Verify(context.Background(), "asha@example.com", code)
	if apperr.KindOf(err) != apperr.CodeInvalid {
		t.Errorf("second Verify kind = %v, want CodeInvalid", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "Invalid or expired OTP" {
		t.Errorf("second Verify message = %q", apperr.MessageOf(err))
	}
}

func TestOTPVerify_AbsentCode(t *testing.T) {
	svc := newOTPService(newFakeCodeStore(), nil)

	err := svc.Verify(context.Background(), "never@example.com", "1234")
	if apperr.KindOf(err) != apperr.CodeInvalid {
		t.Errorf("kind = %v, want CodeInvalid", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "Invalid or expired OTP" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
}

func TestOTPVerify_MismatchLeavesCodeLive(t *testing.T) {
	store := newFakeCodeStore()
	svc := newOTPService(store, nil)

	code, err := svc.Issue(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wrong := "0000"
	if wrong == code {
		wrong = "9999"
	}
	if err := svc.Verify(context.Background(), "asha@example.com", wrong); apperr.KindOf(err) != apperr.CodeInvalid {
		t.Errorf("kind = %v, want CodeInvalid", apperr.KindOf(err))
	}
	if store.codes[otpKey] != code {
		t.Error("a failed attempt must not consume the live code")
	}
	if err := svc.Verify(context.Background(), "asha@example.com", code); err != nil {
		t.Errorf("correct code should still verify after a failed attempt: %v", err)
	}
}

func TestOTPVerify_StoreFaultIsInternal(t *testing.T) {
	store := newFakeCodeStore()
	store.getErr = errors.New("connection refused")

	err := newOTPService(store, nil).Verify(context.Background(), "asha@example.com", "1234")
	if apperr.KindOf(err) != apperr.Internal {
		t.Errorf("kind = %v, want Internal", apperr.KindOf(err))
	}
}
