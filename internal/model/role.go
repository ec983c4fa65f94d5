package model

import "strings"

// Role is the single capability category attached to an identity.
type Role string

const (
	RoleSuperAdmin   Role = "SUPERADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleSpecialist   Role = "SPECIALIST"
	RoleReceptionist Role = "RECEPTIONIST"
	RolePatient      Role = "PATIENT"
)

// Roles lists every known role, most privileged first.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleSpecialist, RoleReceptionist, RolePatient}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSpecialist, RoleReceptionist, RolePatient:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}
