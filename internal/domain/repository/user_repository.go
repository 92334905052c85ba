package repository

import (
	"context"
	"time"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Reads return users without the password hash unless the method name says
// otherwise; the hash is projected only where a comparison is about to happen.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailWithPassword projects the password hash for credential checks.
	GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error)
	// GetPasswordHash projects the hash for an already-resolved principal.
	GetPasswordHash(ctx context.Context, id string) (string, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetResetCode stores the digest of a recovery code with its expiry,
	// replacing any previous reset state for the user.
	SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	// ClearResetCode drops any pending reset state.
	ClearResetCode(ctx context.Context, id string) error
	// ConsumeResetCode finds the user whose stored digest matches and whose
	// expiry has not passed, sets the new password hash, and clears the
	// reset fields in one statement. Returns NotFound when no row matches.
	ConsumeResetCode(ctx context.Context, codeHash, newPasswordHash string) (*entity.User, error)

	ListAll(ctx context.Context) ([]*entity.User, error)
}
