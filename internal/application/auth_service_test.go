package application_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/astroconnect/astroconnect-api/internal/application"
	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
	"github.com/astroconnect/astroconnect-api/pkg/helpers"
)

// ---- fakes ----

type fakeUserRepo struct {
	create                 func(ctx context.Context, u *entity.User) error
	getByID                func(ctx context.Context, id string) (*entity.User, error)
	getByEmail             func(ctx context.Context, email string) (*entity.User, error)
	getByEmailWithPassword func(ctx context.Context, email string) (*entity.User, error)
	getPasswordHash        func(ctx context.Context, id string) (string, error)
	updatePassword         func(ctx context.Context, id, passwordHash string) error
	setResetCode           func(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	clearResetCode         func(ctx context.Context, id string) error
	consumeResetCode       func(ctx context.Context, codeHash, newPasswordHash string) (*entity.User, error)
	listAll                func(ctx context.Context) ([]*entity.User, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *entity.User) error { return r.create(ctx, u) }
func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getByID(ctx, id)
}
func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getByEmail(ctx, email)
}
func (r *fakeUserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error) {
	return r.getByEmailWithPassword(ctx, email)
}
func (r *fakeUserRepo) GetPasswordHash(ctx context.Context, id string) (string, error) {
	return r.getPasswordHash(ctx, id)
}
func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updatePassword(ctx, id, passwordHash)
}
func (r *fakeUserRepo) SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	return r.setResetCode(ctx, id, codeHash, expiresAt)
}
func (r *fakeUserRepo) ClearResetCode(ctx context.Context, id string) error {
	return r.clearResetCode(ctx, id)
}
func (r *fakeUserRepo) ConsumeResetCode(ctx context.Context, codeHash, newPasswordHash string) (*entity.User, error) {
	return r.consumeResetCode(ctx, codeHash, newPasswordHash)
}
func (r *fakeUserRepo) ListAll(ctx context.Context) ([]*entity.User, error) {
	return r.listAll(ctx)
}

type fakeVerifier struct {
	verify func(ctx context.Context, email, code string) error
}

func (v *fakeVerifier) Verify(ctx context.Context, email, code string) error {
	return v.verify(ctx, email, code)
}

type fakeDispatcher struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (d *fakeDispatcher) Send(ctx context.Context, to, subject, body string) error {
	return d.send(ctx, to, subject, body)
}

// ---- helpers ----

func okVerifier() *fakeVerifier {
	return &fakeVerifier{verify: func(_ context.Context, _, _ string) error { return nil }}
}

func okDispatcher() *fakeDispatcher {
	return &fakeDispatcher{send: func(_ context.Context, _, _, _ string) error { return nil }}
}

func newService(repo *fakeUserRepo, otp *fakeVerifier, mail *fakeDispatcher) *application.AuthService {
	return application.NewAuthService(repo, otp, mail, 15*time.Minute, nil, nil)
}

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ---- Register ----

func TestRegister_CreatesUserAfterOTPCheck(t *testing.T) {
	var created *entity.User
	repo := &fakeUserRepo{
		create: func(_ context.Context, u *entity.User) error {
			u.ID = "user-1"
			created = u
			return nil
		},
	}
	svc := newService(repo, okVerifier(), okDispatcher())

	u, err := svc.Register(context.Background(), application.RegisterInput{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "password123",
		OTP:      "1234",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created == nil {
		t.Fatal("repo.Create was not called")
	}
	if created.Role != entity.RoleUser {
		t.Errorf("role = %q, want default user role", created.Role)
	}
	if !helpers.CompareHashAndPassword(created.PasswordHash, "password123") {
		t.Error("stored hash does not match the submitted password")
	}
	if u.PasswordHash != "" {
		t.Error("returned user must not carry the password hash")
	}
}

func TestRegister_RejectedOTPBlocksCreation(t *testing.T) {
	repo := &fakeUserRepo{
		create: func(_ context.Context, _ *entity.User) error {
			t.Fatal("repo.Create must not be called when the OTP fails")
			return nil
		},
	}
	otp := &fakeVerifier{verify: func(_ context.Context, _, _ string) error {
		return apperr.New(apperr.CodeInvalid, "Invalid or expired OTP")
	}}
	svc := newService(repo, otp, okDispatcher())

	_, err := svc.Register(context.Background(), application.RegisterInput{
		Email: "a@b.c", Password: "password123", OTP: "0000",
	})
	if apperr.KindOf(err) != apperr.CodeInvalid {
		t.Errorf("kind = %v, want CodeInvalid", apperr.KindOf(err))
	}
}

func TestRegister_DuplicateEmailSurfacesAsConflict(t *testing.T) {
	repo := &fakeUserRepo{
		create: func(_ context.Context, _ *entity.User) error {
			return apperr.New(apperr.Conflict, "Email is already registered")
		},
	}
	svc := newService(repo, okVerifier(), okDispatcher())

	_, err := svc.Register(context.Background(), application.RegisterInput{
		Email: "a@b.c", Password: "password123", OTP: "1234",
	})
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("kind = %v, want Conflict", apperr.KindOf(err))
	}
}

func TestRegister_KeepsRequestedRole(t *testing.T) {
	var created *entity.User
	repo := &fakeUserRepo{
		create: func(_ context.Context, u *entity.User) error {
			created = u
			return nil
		},
	}
	svc := newService(repo, okVerifier(), okDispatcher())

	_, err := svc.Register(context.Background(), application.RegisterInput{
		Email: "a@b.c", Password: "password123", OTP: "1234", Role: entity.RoleAstrologer,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Role != entity.RoleAstrologer {
		t.Errorf("role = %q, want astrologer", created.Role)
	}
}

// ---- Authenticate ----

func TestAuthenticate_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	hash, _ := helpers.HashPassword("rightpassword")
	known := &fakeUserRepo{
		getByEmailWithPassword: func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}
	unknown := &fakeUserRepo{
		getByEmailWithPassword: func(_ context.Context, _ string) (*entity.User, error) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		},
	}

	_, errWrongPass := newService(known, okVerifier(), okDispatcher()).Authenticate(context.Background(), "a@b.c", "wrongpassword")
	_, errNoUser := newService(unknown, okVerifier(), okDispatcher()).Authenticate(context.Background(), "x@y.z", "whatever")

	for _, err := range []error{errWrongPass, errNoUser} {
		if apperr.KindOf(err) != apperr.Unauthenticated {
			t.Errorf("kind = %v, want Unauthenticated", apperr.KindOf(err))
		}
		if apperr.MessageOf(err) != "Invalid email or password" {
			t.Errorf("message = %q, want indistinguishable failure text", apperr.MessageOf(err))
		}
	}
}

func TestAuthenticate_StripsHashOnSuccess(t *testing.T) {
	hash, _ := helpers.HashPassword("password123")
	repo := &fakeUserRepo{
		getByEmailWithPassword: func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: "user-1", Email: "a@b.c", PasswordHash: hash}, nil
		},
	}
	u, err := newService(repo, okVerifier(), okDispatcher()).Authenticate(context.Background(), "a@b.c", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.PasswordHash != "" {
		t.Error("authenticated user must not carry the password hash")
	}
}

// ---- ForgotPassword ----

func TestForgotPassword_StoresDigestOfMailedCode(t *testing.T) {
	var storedHash string
	var storedExpiry time.Time
	var mailedBody string

	repo := &fakeUserRepo{
		getByEmail: func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: "user-1", Email: "a@b.c"}, nil
		},
		setResetCode: func(_ context.Context, _, codeHash string, expiresAt time.Time) error {
			storedHash = codeHash
			storedExpiry = expiresAt
			return nil
		},
	}
	mail := &fakeDispatcher{send: func(_ context.Context, _, _, body string) error {
		mailedBody = body
		return nil
	}}

	before := time.Now()
	if err := newService(repo, okVerifier(), mail).ForgotPassword(context.Background(), "a@b.c"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	// Pull the 5-digit code out of the mail body.
	marker := "is: "
	idx := strings.Index(mailedBody, marker)
	if idx == -1 {
		t.Fatalf("mail body %q does not contain a code", mailedBody)
	}
	code := mailedBody[idx+len(marker) : idx+len(marker)+5]

	if storedHash != sha256hex(code) {
		t.Errorf("stored digest %q != SHA-256 of mailed code %q", storedHash, code)
	}
	if storedHash == code {
		t.Error("plaintext code must not be stored")
	}
	want := before.Add(15 * time.Minute)
	if storedExpiry.Before(want.Add(-time.Minute)) || storedExpiry.After(want.Add(time.Minute)) {
		t.Errorf("expiry %v not within the configured window", storedExpiry)
	}
}

func TestForgotPassword_MailFailureClearsCode(t *testing.T) {
	cleared := false
	repo := &fakeUserRepo{
		getByEmail: func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: "user-1", Email: "a@b.c"}, nil
		},
		setResetCode: func(_ context.Context, _, _ string, _ time.Time) error { return nil },
		clearResetCode: func(_ context.Context, id string) error {
			cleared = true
			return nil
		},
	}
	mail := &fakeDispatcher{send: func(_ context.Context, _, _, _ string) error {
		return errors.New("mailgun down")
	}}

	err := newService(repo, okVerifier(), mail).ForgotPassword(context.Background(), "a@b.c")
	if err == nil {
		t.Fatal("expected error when mail dispatch fails")
	}
	if !cleared {
		t.Error("reset state must be cleared after a mail failure")
	}
	if apperr.MessageOf(err) != "Failed to send recovery email" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	repo := &fakeUserRepo{
		getByEmail: func(_ context.Context, _ string) (*entity.User, error) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		},
	}
	err := newService(repo, okVerifier(), okDispatcher()).ForgotPassword(context.Background(), "x@y.z")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}

// ---- ResetPassword ----

func TestResetPassword_LooksUpByDigest(t *testing.T) {
	var gotHash string
	repo := &fakeUserRepo{
		consumeResetCode: func(_ context.Context, codeHash, newPasswordHash string) (*entity.User, error) {
			gotHash = codeHash
			if !helpers.CompareHashAndPassword(newPasswordHash, "newpassword1") {
				t.Error("new password hash does not match the submitted password")
			}
			return &entity.User{ID: "user-1"}, nil
		},
	}
	u, err := newService(repo, okVerifier(), okDispatcher()).ResetPassword(context.Background(), "54321", "newpassword1")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if gotHash != sha256hex("54321") {
		t.Errorf("lookup digest = %q, want SHA-256 of the code", gotHash)
	}
	if u.ID != "user-1" {
		t.Errorf("user id = %q", u.ID)
	}
}

func TestResetPassword_NoMatchIsInvalidCode(t *testing.T) {
	repo := &fakeUserRepo{
		consumeResetCode: func(_ context.Context, _, _ string) (*entity.User, error) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		},
	}
	_, err := newService(repo, okVerifier(), okDispatcher()).ResetPassword(context.Background(), "00000", "newpassword1")
	if apperr.KindOf(err) != apperr.CodeInvalid {
		t.Errorf("kind = %v, want CodeInvalid", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "Invalid OTP or OTP expired" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
}

// ---- UpdatePassword ----

func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	hash, _ := helpers.HashPassword("oldpassword1")
	repo := &fakeUserRepo{
		getPasswordHash: func(_ context.Context, _ string) (string, error) { return hash, nil },
		updatePassword: func(_ context.Context, _, _ string) error {
			t.Fatal("password must not change when the old one is wrong")
			return nil
		},
	}
	_, err := newService(repo, okVerifier(), okDispatcher()).UpdatePassword(context.Background(), "user-1", "nottheoldone", "newpassword1")
	if apperr.KindOf(err) != apperr.Unauthenticated {
		t.Errorf("kind = %v, want Unauthenticated", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "Old password is incorrect" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
}

func TestUpdatePassword_RotatesHash(t *testing.T) {
	hash, _ := helpers.HashPassword("oldpassword1")
	var newHash string
	repo := &fakeUserRepo{
		getPasswordHash: func(_ context.Context, _ string) (string, error) { return hash, nil },
		updatePassword: func(_ context.Context, _, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
		getByID: func(_ context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id}, nil
		},
	}
	u, err := newService(repo, okVerifier(), okDispatcher()).UpdatePassword(context.Background(), "user-1", "oldpassword1", "newpassword1")
	if err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if !helpers.CompareHashAndPassword(newHash, "newpassword1") {
		t.Error("stored hash does not match the new password")
	}
	if u.ID != "user-1" {
		t.Errorf("user id = %q", u.ID)
	}
}
