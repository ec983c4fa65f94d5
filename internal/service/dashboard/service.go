package dashboard

import (
	"errors"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
)

var (
	ErrModuleNotFound  = errors.New("module not found")
	ErrModuleForbidden = errors.New("module not available for role")
)

// MenuItem is a module rendered for one language.
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// Menu is the navigation for one role.
type Menu struct {
	Role      model.Role `json:"role"`
	RoleLabel string     `json:"roleLabel"`
	RoleColor string     `json:"roleColor"`
	Home      string     `json:"home"`
	Items     []MenuItem `json:"items"`
}

type Service struct {
	modules []Module
}

func NewService() *Service {
	return &Service{modules: modules}
}

func (m Module) visibleTo(role model.Role) bool {
	return m.Always || rbac.HasAnyPermission(role, m.Permissions...)
}

func (m Module) label(lang string) string {
	if l, ok := m.Labels[lang]; ok {
		return l
	}
	return m.Labels[rbac.LangES]
}

// Item renders the module for lang.
func (m Module) Item(lang string) MenuItem {
	return MenuItem{
		Key:   m.Key,
		Label: m.label(lang),
		Path:  m.Path,
		Icon:  m.Icon,
	}
}

// Menu lists the modules visible to role, in declaration order.
func (s *Service) Menu(role model.Role, lang string) *Menu {
	menu := &Menu{
		Role:      role,
		RoleLabel: rbac.Label(role, lang),
		RoleColor: rbac.Color(role),
		Home:      HomePath(role),
		Items:     []MenuItem{},
	}
	for _, m := range s.modules {
		if !m.visibleTo(role) {
			continue
		}
		menu.Items = append(menu.Items, m.Item(lang))
	}
	return menu
}

// Resolve returns the module named key if role may open it.
func (s *Service) Resolve(role model.Role, key string) (*Module, error) {
	for i := range s.modules {
		m := s.modules[i]
		if m.Key != key {
			continue
		}
		if !m.visibleTo(role) {
			return nil, ErrModuleForbidden
		}
		return &m, nil
	}
	return nil, ErrModuleNotFound
}

// HomePath is the landing dashboard of each role. Unknown roles land on the
// profile page, which every identity may open.
func HomePath(role model.Role) string {
	switch role {
	case model.RoleSuperAdmin:
		return "/dashboard/superadmin"
	case model.RoleAdmin:
		return "/dashboard/admin"
	case model.RoleSpecialist:
		return "/dashboard/specialist"
	case model.RoleReceptionist:
		return "/dashboard/reception"
	case model.RolePatient:
		return "/dashboard/patient"
	default:
		return "/dashboard/profile"
	}
}
