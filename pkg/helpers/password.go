package helpers

import "golang.org/x/crypto/bcrypt"

// dummyHash is a bcrypt hash of a random throwaway string. Comparing against
// it when the email lookup misses keeps the work factor of the "no such
// user" path in line with the "wrong password" path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BurnPasswordCompare runs a bcrypt comparison that always fails. Called on
// the unknown-email login path so response timing does not reveal whether
// the address is registered.
func BurnPasswordCompare(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plain))
}
