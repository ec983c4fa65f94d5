// Package dashboard decides which navigation modules a role sees and whether
// a role may open a given module.
package dashboard

import (
	"github.com/jwalitptl/clinic-admin/internal/model"
)

// Module is one navigation entry. A module is visible when the role holds any
// of Permissions, or always when Always is set.
type Module struct {
	Key         string             `json:"key"`
	Path        string             `json:"path"`
	Icon        string             `json:"icon"`
	Labels      map[string]string  `json:"-"`
	Permissions []model.Permission `json:"permissions,omitempty"`
	Always      bool               `json:"-"`
}

var modules = []Module{
	{
		Key: "home", Path: "/dashboard", Icon: "dashboard", Always: true,
		Labels: map[string]string{"es": "Inicio", "en": "Home"},
	},
	{
		Key: "admins", Path: "/dashboard/admins", Icon: "shield",
		Labels:      map[string]string{"es": "Administradores", "en": "Administrators"},
		Permissions: []model.Permission{model.PermManageAdmins},
	},
	{
		Key: "users", Path: "/dashboard/users", Icon: "people",
		Labels:      map[string]string{"es": "Usuarios", "en": "Users"},
		Permissions: []model.Permission{model.PermManageUsers},
	},
	{
		Key: "specialists", Path: "/dashboard/specialists", Icon: "medical_services",
		Labels:      map[string]string{"es": "Especialistas", "en": "Specialists"},
		Permissions: []model.Permission{model.PermManageSpecialists},
	},
	{
		Key: "patients", Path: "/dashboard/patients", Icon: "personal_injury",
		Labels:      map[string]string{"es": "Pacientes", "en": "Patients"},
		Permissions: []model.Permission{model.PermManagePatients, model.PermManageUsers},
	},
	{
		Key: "appointments", Path: "/dashboard/appointments", Icon: "event",
		Labels:      map[string]string{"es": "Citas", "en": "Appointments"},
		Permissions: []model.Permission{model.PermManageAppointments},
	},
	{
		Key: "book-appointment", Path: "/dashboard/book", Icon: "event_available",
		Labels:      map[string]string{"es": "Agendar cita", "en": "Book appointment"},
		Permissions: []model.Permission{model.PermBookAppointments},
	},
	{
		Key: "studies", Path: "/dashboard/studies", Icon: "biotech",
		Labels:      map[string]string{"es": "Estudios", "en": "Studies"},
		Permissions: []model.Permission{model.PermManageStudies},
	},
	{
		Key: "my-studies", Path: "/dashboard/my-studies", Icon: "folder_shared",
		Labels:      map[string]string{"es": "Mis estudios", "en": "My studies"},
		Permissions: []model.Permission{model.PermViewOwnStudies},
	},
	{
		Key: "reports", Path: "/dashboard/reports", Icon: "assessment",
		Labels:      map[string]string{"es": "Reportes", "en": "Reports"},
		Permissions: []model.Permission{model.PermViewReports},
	},
	{
		Key: "billing", Path: "/dashboard/billing", Icon: "receipt_long",
		Labels:      map[string]string{"es": "Facturación", "en": "Billing"},
		Permissions: []model.Permission{model.PermManageBilling},
	},
	{
		Key: "analytics", Path: "/dashboard/analytics", Icon: "insights",
		Labels:      map[string]string{"es": "Analíticas", "en": "Analytics"},
		Permissions: []model.Permission{model.PermViewAnalytics},
	},
	{
		Key: "database", Path: "/dashboard/database", Icon: "storage",
		Labels:      map[string]string{"es": "Base de datos", "en": "Database"},
		Permissions: []model.Permission{model.PermManageDatabase},
	},
	{
		Key: "settings", Path: "/dashboard/settings", Icon: "settings",
		Labels:      map[string]string{"es": "Configuración", "en": "Settings"},
		Permissions: []model.Permission{model.PermManageSettings},
	},
	{
		Key: "profile", Path: "/dashboard/profile", Icon: "account_circle", Always: true,
		Labels: map[string]string{"es": "Mi perfil", "en": "My profile"},
	},
}
