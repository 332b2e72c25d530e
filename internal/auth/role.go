package auth

import "strings"

// Role is the closed set of caller roles. Free-text role strings are rejected
// at the boundary; services only ever see one of these values.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleHOD     Role = "HOD"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleHOD:
		return RoleHOD, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleStudent:
		return RoleStudent, true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role carries admin override rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
