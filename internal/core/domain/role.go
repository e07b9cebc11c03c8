package domain

import "fmt"

// Role is the closed set of authorization roles. Values outside the set are
// rejected by ParseRole and by JSON/text decoding.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleAdmin, RoleModerator}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRole, s)
	}
	return r, nil
}

// MarshalText encodes the zero Role as an empty string; any other unknown
// value is an error. Decoding still rejects the empty string.
func (r Role) MarshalText() ([]byte, error) {
	if r == "" {
		return []byte{}, nil
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRole, string(r))
	}
	return []byte(r), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
