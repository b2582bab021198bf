package domain

import "fmt"

// Role is the access level attached to a user. It is stored on the user row
// and re-read from there for every authorization decision; the copy carried
// in a JWT is informational only.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleOfficer Role = "OFFICER"
	RoleFarmer  Role = "FARMER"
)

// ParseRole validates a role string read from any boundary (request body,
// token claim, storage row). Unknown values are rejected, never defaulted.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOfficer, RoleFarmer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q: %w", s, ErrBadRequest)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }
