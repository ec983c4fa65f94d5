package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-admin/internal/model"
)

type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*model.LoginResponse)
	return resp, args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*model.LoginResponse)
	return resp, args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID) {
	m.Called(ctx, userID)
}

func (m *AuthService) Me(ctx context.Context, userID uuid.UUID) (*model.Identity, error) {
	return identityResult(m.Called(ctx, userID))
}

func (m *AuthService) CompleteProfile(ctx context.Context, userID uuid.UUID, req *model.CompleteProfileRequest) (*model.Identity, error) {
	return identityResult(m.Called(ctx, userID, req))
}

func (m *AuthService) UpdateSelf(ctx context.Context, userID uuid.UUID, req *model.UpdateSelfRequest) (*model.Identity, error) {
	return identityResult(m.Called(ctx, userID, req))
}

type UserService struct {
	mock.Mock
}

func (m *UserService) CreateUser(ctx context.Context, actor *model.Identity, req *model.CreateUserRequest) (*model.Identity, error) {
	return identityResult(m.Called(ctx, actor, req))
}

func (m *UserService) GetUser(ctx context.Context, actor *model.Identity, id uuid.UUID) (*model.Identity, error) {
	return identityResult(m.Called(ctx, actor, id))
}

func (m *UserService) ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.Identity, int64, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]*model.Identity)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *UserService) SetActive(ctx context.Context, actor *model.Identity, id uuid.UUID, active bool) (*model.Identity, error) {
	return identityResult(m.Called(ctx, actor, id, active))
}

func (m *UserService) ChangeRole(ctx context.Context, actor *model.Identity, id uuid.UUID, role model.Role) (*model.Identity, error) {
	return identityResult(m.Called(ctx, actor, id, role))
}

func identityResult(args mock.Arguments) (*model.Identity, error) {
	identity, _ := args.Get(0).(*model.Identity)
	return identity, args.Error(1)
}
