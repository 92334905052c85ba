package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the credential domain.
// PasswordHash is a bcrypt hash and is only populated when a query
// explicitly projects it (login, password update).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role

	// Password recovery. The plaintext code is never stored; only its
	// SHA-256 digest, valid while now < ResetCodeExpiresAt.
	ResetCodeHash      string
	ResetCodeExpiresAt *time.Time

	// Astrologer-only attributes. Irrelevant to auth beyond role gating.
	AstrologerRating     float64
	AstrologerSkills     []string
	AstrologerExperience int
	ChatFees             int
	VideoCallFees        int
	AstrologerStatus     string

	// Birth profile captured at registration.
	ZodiacSign string
	BirthDate  *time.Time
	BirthTime  string
	BirthPlace string
	Gender     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
// The unique index on users.email assumes this normalization.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
