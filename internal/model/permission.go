package model

// Permission is an opaque capability token. Tokens are checked independently.
type Permission string

const (
	PermManageUsers        Permission = "manage_users"
	PermManageSpecialists  Permission = "manage_specialists"
	PermViewReports        Permission = "view_reports"
	PermManageBilling      Permission = "manage_billing"
	PermManageAdmins       Permission = "manage_admins"
	PermManageDatabase     Permission = "manage_database"
	PermManageSettings     Permission = "manage_settings"
	PermManageAppointments Permission = "manage_appointments"
	PermManageStudies      Permission = "manage_studies"
	PermViewAnalytics      Permission = "view_analytics"
	PermManagePatients     Permission = "manage_patients"
	PermBookAppointments   Permission = "book_appointments"
	PermViewOwnStudies     Permission = "view_own_studies"
)

func (p Permission) String() string {
	return string(p)
}
