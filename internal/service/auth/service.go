package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
	"github.com/jwalitptl/clinic-admin/internal/service/audit"
	"github.com/jwalitptl/clinic-admin/internal/service/identity"
	"github.com/jwalitptl/clinic-admin/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
	"github.com/jwalitptl/clinic-admin/pkg/security"
)

var ErrProfileCompleted = errors.New("profile already completed")

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	auditor  audit.Recorder
	notifier identity.Notifier
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher,
	auditor audit.Recorder, notifier identity.Notifier) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		auditor:  auditor,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a patient account and signs it in.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         model.RolePatient,
		IsActive:     true,
		IsNew:        true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(err)
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionRegister, model.AuditEntityAuth, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": user.Email},
	})

	return resp, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", model.ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", model.ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is inactive", model.ErrAccountInactive)
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update login timestamp: %w", err))
	}
	user.LastLoginAt = &now

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionLogin, model.AuditEntityAuth, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": user.Email},
	})

	return resp, nil
}

// Logout only records the event; tokens are stateless and expire on their own.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) {
	s.auditor.Log(ctx, userID, model.AuditActionLogout, model.AuditEntityAuth, userID, nil)
}

// Me returns a fresh copy of the caller's identity.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// CompleteProfile finishes the first-login wizard. It succeeds once per
// account; isNew is false afterwards.
func (s *Service) CompleteProfile(ctx context.Context, userID uuid.UUID, req *model.CompleteProfileRequest) (*model.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsNew {
		return nil, apperrors.Conflict("profile already completed", ErrProfileCompleted)
	}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	phone := strings.TrimSpace(req.Phone)
	user.Phone = &phone

	passwordChanged := false
	if req.NewPassword != nil {
		hash, err := s.hashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		passwordChanged = true
	}

	now := s.now().UTC()
	user.IsNew = false
	user.ProfileCompletedAt = &now

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionCompleteProfile, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"password_changed": passwordChanged},
	})

	return user.Identity(), nil
}

// UpdateSelf changes the caller's own name and phone. Role and activation
// status are never touched here.
func (s *Service) UpdateSelf(ctx context.Context, userID uuid.UUID, req *model.UpdateSelfRequest) (*model.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
		changes["firstName"] = user.FirstName
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
		changes["lastName"] = user.LastName
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		user.Phone = &phone
		changes["phone"] = phone
	}
	if len(changes) == 0 {
		return user.Identity(), nil
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, model.AuditActionUpdate, model.AuditEntityUser, user.ID, &audit.LogOptions{Changes: changes})
	return user.Identity(), nil
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *Service) save(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return apperrors.Internal(err)
	}
	s.notifier.Changed(ctx, user.ID)
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return "", apperrors.BadRequest("password too short", err)
		}
		return "", apperrors.Internal(err)
	}
	return hash, nil
}

func (s *Service) issue(user *model.User) (*model.LoginResponse, error) {
	identity := user.Identity()
	token, err := s.jwtSvc.GenerateAccessToken(identity)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}
	return &model.LoginResponse{Token: token, User: identity}, nil
}
