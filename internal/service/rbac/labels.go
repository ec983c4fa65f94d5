package rbac

import "github.com/jwalitptl/clinic-admin/internal/model"

const (
	LangES = "es"
	LangEN = "en"
)

var roleLabels = map[string]map[model.Role]string{
	LangES: {
		model.RoleSuperAdmin:   "Superadministrador",
		model.RoleAdmin:        "Administrador",
		model.RoleSpecialist:   "Especialista",
		model.RoleReceptionist: "Recepcionista",
		model.RolePatient:      "Paciente",
	},
	LangEN: {
		model.RoleSuperAdmin:   "Super Administrator",
		model.RoleAdmin:        "Administrator",
		model.RoleSpecialist:   "Specialist",
		model.RoleReceptionist: "Receptionist",
		model.RolePatient:      "Patient",
	},
}

var unknownLabels = map[string]string{
	LangES: "Desconocido",
	LangEN: "Unknown",
}

// Label returns the display label of role in lang. Unsupported languages fall
// back to Spanish.
func Label(role model.Role, lang string) string {
	labels, ok := roleLabels[lang]
	if !ok {
		lang = LangES
		labels = roleLabels[LangES]
	}
	if l, ok := labels[role]; ok {
		return l
	}
	return unknownLabels[lang]
}

// Color returns the UI palette token used for role chips.
func Color(role model.Role) string {
	switch role {
	case model.RoleSuperAdmin:
		return "error"
	case model.RoleAdmin:
		return "warning"
	case model.RoleSpecialist:
		return "info"
	case model.RoleReceptionist:
		return "secondary"
	case model.RolePatient:
		return "success"
	default:
		return "default"
	}
}

// RoleInfo is the display row for a role.
type RoleInfo struct {
	Role        model.Role         `json:"role"`
	Label       string             `json:"label"`
	Color       string             `json:"color"`
	Permissions []model.Permission `json:"permissions"`
	AllAccess   bool               `json:"all_access"`
}

// Describe lists every role with its label, color and enumerated permissions.
func Describe(lang string) []RoleInfo {
	roles := model.Roles()
	out := make([]RoleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleInfo{
			Role:        r,
			Label:       Label(r, lang),
			Color:       Color(r),
			Permissions: PermissionsFor(r),
			AllAccess:   IsSuperAdmin(r),
		})
	}
	return out
}
