package entity

// Role is the authorization role of a user.
type Role string

const (
	RoleUser       Role = "user"
	RoleAstrologer Role = "astrologer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAstrologer, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// RoleSet is an enumerated set of roles allowed to access a resource.
// Passed to the authorize middleware instead of a loose string list.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether the set allows the given role.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
