// Package rbac holds the static role to permission table and the predicates
// every menu, module router and request guard consults.
//
// All functions are pure and total: a role outside the known set holds no
// permissions, and nothing here returns an error.
package rbac

import (
	"sort"

	"github.com/jwalitptl/clinic-admin/internal/model"
)

type permissionSet map[model.Permission]struct{}

func newSet(perms ...model.Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

var (
	superAdminPermissions = newSet(
		model.PermManageAdmins,
		model.PermManageDatabase,
		model.PermManageSettings,
		model.PermViewAnalytics,
		model.PermManageUsers,
		model.PermManageSpecialists,
		model.PermViewReports,
		model.PermManageBilling,
	)
	adminPermissions = newSet(
		model.PermManageUsers,
		model.PermManageSpecialists,
		model.PermViewReports,
		model.PermManageBilling,
	)
	specialistPermissions = newSet(
		model.PermManageAppointments,
		model.PermManageStudies,
	)
	receptionistPermissions = newSet(
		model.PermManageAppointments,
		model.PermManagePatients,
	)
	patientPermissions = newSet(
		model.PermBookAppointments,
		model.PermViewOwnStudies,
	)
)

// permissionsOf is the single lookup into the table. The superadmin entry is
// only used for display; HasPermission short-circuits before reaching it.
func permissionsOf(role model.Role) permissionSet {
	switch role {
	case model.RoleSuperAdmin:
		return superAdminPermissions
	case model.RoleAdmin:
		return adminPermissions
	case model.RoleSpecialist:
		return specialistPermissions
	case model.RoleReceptionist:
		return receptionistPermissions
	case model.RolePatient:
		return patientPermissions
	default:
		return nil
	}
}

// HasPermission reports whether role holds permission. SUPERADMIN holds every
// permission, including ones that appear nowhere in the table.
func HasPermission(role model.Role, permission model.Permission) bool {
	if role == model.RoleSuperAdmin {
		return true
	}
	_, ok := permissionsOf(role)[permission]
	return ok
}

// HasAnyPermission reports whether role holds at least one of permissions.
// An empty list is never satisfied.
func HasAnyPermission(role model.Role, permissions ...model.Permission) bool {
	for _, p := range permissions {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role holds every one of permissions.
// An empty list is vacuously satisfied.
func HasAllPermissions(role model.Role, permissions ...model.Permission) bool {
	for _, p := range permissions {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// IsAdmin reports whether role is ADMIN or SUPERADMIN.
func IsAdmin(role model.Role) bool {
	return role == model.RoleAdmin || role == model.RoleSuperAdmin
}

// IsSuperAdmin reports whether role is SUPERADMIN.
func IsSuperAdmin(role model.Role) bool {
	return role == model.RoleSuperAdmin
}

// PermissionsFor returns the enumerated permissions of role, sorted. The
// result is a fresh slice; callers may modify it.
func PermissionsFor(role model.Role) []model.Permission {
	set := permissionsOf(role)
	out := make([]model.Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
