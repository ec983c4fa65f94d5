package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/audit"
)

// Recorder captures audit entries.
type Recorder struct {
	mock.Mock
}

func (m *Recorder) Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *audit.LogOptions) {
	m.Called(ctx, userID, action, entityType, entityID, opts)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) Changed(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

type Resolver struct {
	mock.Mock
}

func (m *Resolver) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(*model.Identity)
	return identity, args.Error(1)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendWelcome(ctx context.Context, to, name, roleLabel string) error {
	return m.Called(ctx, to, name, roleLabel).Error(0)
}

func (m *EmailService) SendCustom(ctx context.Context, to, subject, content string) error {
	return m.Called(ctx, to, subject, content).Error(0)
}
