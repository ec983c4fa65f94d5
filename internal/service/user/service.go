package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/internal/email"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
	"github.com/jwalitptl/clinic-admin/internal/service/audit"
	"github.com/jwalitptl/clinic-admin/internal/service/identity"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/security"
)

var (
	ErrSelfDeactivation = errors.New("cannot deactivate your own account")
	ErrSelfDemotion     = errors.New("a superadmin cannot change their own role")
)

type UserServicer interface {
	CreateUser(ctx context.Context, actor *model.Identity, req *model.CreateUserRequest) (*model.Identity, error)
	GetUser(ctx context.Context, actor *model.Identity, id uuid.UUID) (*model.Identity, error)
	ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.Identity, int64, error)
	SetActive(ctx context.Context, actor *model.Identity, id uuid.UUID, active bool) (*model.Identity, error)
	ChangeRole(ctx context.Context, actor *model.Identity, id uuid.UUID, role model.Role) (*model.Identity, error)
}

type Service struct {
	repo     repository.UserRepository
	hasher   security.PasswordHasher
	emailSvc email.Service
	auditor  audit.Recorder
	notifier identity.Notifier
	logger   *logger.Logger
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, emailSvc email.Service,
	auditor audit.Recorder, notifier identity.Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		emailSvc: emailSvc,
		auditor:  auditor,
		notifier: notifier,
		logger:   log.With("user-service"),
	}
}

// ManagePermission is the permission an actor needs to create or modify an
// account holding role.
func ManagePermission(role model.Role) model.Permission {
	switch role {
	case model.RoleSuperAdmin, model.RoleAdmin:
		return model.PermManageAdmins
	case model.RoleSpecialist:
		return model.PermManageSpecialists
	default:
		return model.PermManageUsers
	}
}

func canManage(actor *model.Identity, role model.Role) bool {
	return actor != nil && rbac.HasPermission(actor.Role, ManagePermission(role))
}

func (s *Service) CreateUser(ctx context.Context, actor *model.Identity, req *model.CreateUserRequest) (*model.Identity, error) {
	role, ok := model.ParseRole(string(req.Role))
	if !ok {
		return nil, apperrors.BadRequest("unknown role", nil)
	}
	if !canManage(actor, role) {
		return nil, apperrors.Forbidden("not allowed to create "+strings.ToLower(role.String())+" accounts", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
		IsNew:        true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.FirstName, rbac.Label(role, rbac.LangES)); err != nil {
		s.logger.Error(err, "failed to send welcome email", "user_id", user.ID.String())
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionCreate, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"email": user.Email, "role": role},
	})
	s.notifier.Changed(ctx, user.ID)

	return user.Identity(), nil
}

func (s *Service) GetUser(ctx context.Context, actor *model.Identity, id uuid.UUID) (*model.Identity, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != id && !canManage(actor, user.Role) {
		return nil, apperrors.Forbidden("not allowed to view this account", nil)
	}
	return user.Identity(), nil
}

func (s *Service) ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.Identity, int64, error) {
	if filter != nil && filter.Role != "" {
		role, ok := model.ParseRole(string(filter.Role))
		if !ok {
			return nil, 0, apperrors.BadRequest("unknown role", nil)
		}
		filter.Role = role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	out := make([]*model.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, u.Identity())
	}
	return out, total, nil
}

// SetActive enables or disables an account. Actors cannot disable themselves.
func (s *Service) SetActive(ctx context.Context, actor *model.Identity, id uuid.UUID, active bool) (*model.Identity, error) {
	if actor.ID == id && !active {
		return nil, apperrors.BadRequest(ErrSelfDeactivation.Error(), ErrSelfDeactivation)
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != id && !canManage(actor, user.Role) {
		return nil, apperrors.Forbidden("not allowed to modify this account", nil)
	}
	if user.IsActive == active {
		return user.Identity(), nil
	}

	previous := user.IsActive
	user.IsActive = active
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionSetActive, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"from": previous, "to": active},
	})
	return user.Identity(), nil
}

// ChangeRole reassigns an account's role. The actor must be allowed to manage
// both the current and the requested role.
func (s *Service) ChangeRole(ctx context.Context, actor *model.Identity, id uuid.UUID, role model.Role) (*model.Identity, error) {
	role, ok := model.ParseRole(string(role))
	if !ok {
		return nil, apperrors.BadRequest("unknown role", nil)
	}
	if actor.ID == id && actor.Role == model.RoleSuperAdmin && role != model.RoleSuperAdmin {
		return nil, apperrors.BadRequest(ErrSelfDemotion.Error(), ErrSelfDemotion)
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, user.Role) || !canManage(actor, role) {
		return nil, apperrors.Forbidden("not allowed to assign this role", nil)
	}
	if user.Role == role {
		return user.Identity(), nil
	}

	previous := user.Role
	user.Role = role
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, model.AuditActionChangeRole, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"from": previous, "to": role},
	})
	return user.Identity(), nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *Service) save(ctx context.Context, user *model.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return apperrors.Internal(err)
	}
	s.notifier.Changed(ctx, user.ID)
	return nil
}
