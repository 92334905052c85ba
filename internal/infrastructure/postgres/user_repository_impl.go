package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/internal/domain/repository"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
)

const uniqueViolation = "23505"

// defaultColumns excludes password_hash and the reset fields; those are
// projected only by the methods that need them.
const defaultColumns = `
	id, email, name, role,
	astrologer_rating, astrologer_skills, astrologer_experience,
	chat_fees, video_call_fees, astrologer_status,
	zodiac_sign, birth_date, birth_time, birth_place, gender,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user. There is deliberately no prior existence check:
// the unique index on email is the authoritative duplicate guard, and its
// rejection is normalized to a Conflict here.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role, zodiac_sign, birth_date, birth_time, birth_place, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, entity.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Role, u.ZodiacSign, u.BirthDate, u.BirthTime, u.BirthPlace, u.Gender)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Wrap(apperr.Conflict, "Email is already registered", err)
		}
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	u.Email = entity.NormalizeEmail(u.Email)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+defaultColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+defaultColumns+` FROM users WHERE email = $1`, entity.NormalizeEmail(email))
	return scanUser(row)
}

// GetByEmailWithPassword additionally projects the password hash. Only the
// credential-check paths use it.
func (r *UserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT password_hash, `+defaultColumns+` FROM users WHERE email = $1`, entity.NormalizeEmail(email))
	u := &entity.User{}
	if err := row.Scan(&u.PasswordHash,
		&u.ID, &u.Email, &u.Name, &u.Role,
		&u.AstrologerRating, &u.AstrologerSkills, &u.AstrologerExperience,
		&u.ChatFees, &u.VideoCallFees, &u.AstrologerStatus,
		&u.ZodiacSign, &u.BirthDate, &u.BirthTime, &u.BirthPlace, &u.Gender,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	return u, nil
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, id string) (string, error) {
	var hash string
	if err := r.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash); err != nil {
		return "", normalizeScanErr(err)
	}
	return hash, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "User not found")
	}
	return nil
}

// SetResetCode overwrites any previous reset state; recovery codes are not
// stackable.
func (r *UserRepository) SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_code_hash = $1, reset_code_expires_at = $2, updated_at = now() WHERE id = $3
	`, codeHash, expiresAt, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "User not found")
	}
	return nil
}

func (r *UserRepository) ClearResetCode(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_code_hash = NULL, reset_code_expires_at = NULL, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	return nil
}

// ConsumeResetCode matches by digest and unexpired window, swaps in the new
// password hash and clears the reset fields in a single statement, so a code
// can never be redeemed twice.
func (r *UserRepository) ConsumeResetCode(ctx context.Context, codeHash, newPasswordHash string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, reset_code_hash = NULL, reset_code_expires_at = NULL, updated_at = now()
		WHERE reset_code_hash = $1 AND reset_code_expires_at > now()
		RETURNING `+defaultColumns, codeHash, newPasswordHash)
	return scanUser(row)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+defaultColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role,
		&u.AstrologerRating, &u.AstrologerSkills, &u.AstrologerExperience,
		&u.ChatFees, &u.VideoCallFees, &u.AstrologerStatus,
		&u.ZodiacSign, &u.BirthDate, &u.BirthTime, &u.BirthPlace, &u.Gender,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	return u, nil
}

func normalizeScanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, "User not found", err)
	}
	// A malformed identifier can never match a row; treat it the same as a
	// miss instead of leaking a store fault.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return apperr.Wrap(apperr.NotFound, "User not found", err)
	}
	return apperr.Wrap(apperr.Internal, "Internal server error", err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
