package models

import "fmt"

// Role is a marketplace role. The set is closed.
type Role string

const (
	RoleRenter      Role = "renter"
	RoleHubber      Role = "hubber"
	RoleSuperHubber Role = "superhubber"
	RoleAdmin       Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleRenter, RoleHubber, RoleSuperHubber, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Roles is the set of roles held by one user.
type Roles []Role

// Has reports whether r is in the set.
func (rs Roles) Has(r Role) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

// ParseRoles validates every entry of names.
func ParseRoles(names []string) (Roles, error) {
	out := make(Roles, 0, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		if !out.Has(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
