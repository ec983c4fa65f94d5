// Package identity serves the current stored identity of a user to request
// guards, caching it briefly and dropping cached copies whenever any process
// reports a change.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/messaging"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Resolver returns the stored identity for a user id.
type Resolver interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Identity, error)
}

// Notifier is told about every identity mutation.
type Notifier interface {
	Changed(ctx context.Context, id uuid.UUID)
}

type changedPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type Service struct {
	users   repository.UserRepository
	cache   *cache.Cache
	broker  messaging.Broker
	origin  string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewService caches identities for ttl. A nil broker keeps invalidation
// local to this process.
func NewService(users repository.UserRepository, ttl time.Duration, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		users:   users,
		cache:   cache.New(ttl, 2*ttl),
		broker:  broker,
		origin:  uuid.NewString(),
		logger:  log.With("identity"),
		metrics: m,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	if v, ok := s.cache.Get(id.String()); ok {
		s.observe("hit")
		return v.(*model.Identity).Clone(), nil
	}
	s.observe("miss")

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	identity := user.Identity()
	s.cache.SetDefault(id.String(), identity)
	return identity.Clone(), nil
}

// Changed drops the cached copy and tells other processes to do the same.
func (s *Service) Changed(ctx context.Context, id uuid.UUID) {
	s.cache.Delete(id.String())
	if s.broker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := messaging.Message{
		Type:    messaging.TypeIdentityChanged,
		Origin:  s.origin,
		Payload: changedPayload{UserID: id},
	}
	if err := s.broker.Publish(ctx, messaging.ChannelIdentityUpdated, msg); err != nil {
		s.logger.Error(err, "failed to publish identity change", "user_id", id.String())
	}
}

// Run applies invalidations published by other processes until ctx is done.
// Session refresh broadcasts are skipped; other messages without a user id
// flush the whole cache.
func (s *Service) Run(ctx context.Context) error {
	if s.broker == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	msgs, err := s.broker.Subscribe(ctx, messaging.ChannelIdentityUpdated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to identity updates: %w", err)
	}

	for raw := range msgs {
		var msg struct {
			Type    string          `json:"type"`
			Origin  string          `json:"origin"`
			Payload *changedPayload `json:"payload"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("dropping malformed identity update", "error", err.Error())
			continue
		}
		if msg.Origin == s.origin || msg.Type == messaging.TypeSessionRefreshed {
			continue
		}
		if msg.Payload == nil || msg.Payload.UserID == uuid.Nil {
			s.cache.Flush()
			continue
		}
		s.cache.Delete(msg.Payload.UserID.String())
	}
	return ctx.Err()
}

func (s *Service) observe(result string) {
	if s.metrics != nil {
		s.metrics.IdentityCache.WithLabelValues(result).Inc()
	}
}
