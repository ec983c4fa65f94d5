package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/messaging"
)

const publishTimeout = 2 * time.Second

// RedisSignal extends a LocalSignal across processes through the broker.
// Local notifications are published on ChannelIdentityUpdated as
// TypeSessionRefreshed and remote ones of that type are fed back into the
// local signal. A process ignores its own broadcasts.
type RedisSignal struct {
	local    *LocalSignal
	broker   messaging.Broker
	origin   string
	logger   *logger.Logger
	inflight sync.WaitGroup
}

func NewRedisSignal(broker messaging.Broker, log *logger.Logger) *RedisSignal {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisSignal{
		local:  NewLocalSignal(),
		broker: broker,
		origin: uuid.NewString(),
		logger: log.With("identity-signal"),
	}
}

func (s *RedisSignal) Subscribe() (<-chan struct{}, func()) {
	return s.local.Subscribe()
}

// Notify wakes local subscribers and publishes in the background. Publish
// failures are logged; local delivery has already happened.
func (s *RedisSignal) Notify() {
	s.local.Notify()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.publish()
	}()
}

// Wait blocks until every publish started by Notify has finished. Call it
// before closing the broker.
func (s *RedisSignal) Wait() {
	s.inflight.Wait()
}

func (s *RedisSignal) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := messaging.Message{Type: messaging.TypeSessionRefreshed, Origin: s.origin}
	if err := s.broker.Publish(ctx, messaging.ChannelIdentityUpdated, msg); err != nil {
		s.logger.Error(err, "failed to publish session refresh")
	}
}

// Run relays remote broadcasts until ctx is done.
func (s *RedisSignal) Run(ctx context.Context) error {
	msgs, err := s.broker.Subscribe(ctx, messaging.ChannelIdentityUpdated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to identity updates: %w", err)
	}

	for raw := range msgs {
		var msg messaging.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("dropping malformed identity update", "error", err.Error())
			continue
		}
		if msg.Origin == s.origin || msg.Type != messaging.TypeSessionRefreshed {
			continue
		}
		s.local.Notify()
	}
	return ctx.Err()
}
