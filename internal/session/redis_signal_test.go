package session

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/pkg/messaging"
	redisbroker "github.com/jwalitptl/clinic-admin/pkg/messaging/redis"
)

func newBroker(t *testing.T, mr *miniredis.Miniredis) messaging.Broker {
	t.Helper()
	client, err := redisbroker.NewClient(context.Background(), redisbroker.Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	b := redisbroker.NewRedisBroker(client, nil, nil)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestRedisSignal_CrossProcessRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	writerSignal := NewRedisSignal(newBroker(t, mr), nil)
	readerSignal := NewRedisSignal(newBroker(t, mr), nil)
	go readerSignal.Run(ctx)
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(messaging.ChannelIdentityUpdated)) > 0
	}, time.Second, 5*time.Millisecond)

	store := NewMemoryStore(nil, "shared")
	writer := NewBinder(store, writerSignal)
	reader := NewBinder(store, readerSignal)
	go reader.Watch(ctx)
	require.Eventually(t, func() bool { return readerSignal.local.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	identity := testIdentity(model.RoleSpecialist)
	require.NoError(t, writer.Persist(ctx, "tok", identity))

	assert.Eventually(t, func() bool {
		return reader.State() == StateAuthenticated && reader.HasPermission(model.PermManageStudies)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisSignal_IgnoresOwnAndMalformed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	s := NewRedisSignal(newBroker(t, mr), nil)
	go s.Run(ctx)
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(messaging.ChannelIdentityUpdated)) > 0
	}, time.Second, 5*time.Millisecond)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	own, _ := json.Marshal(messaging.Message{Type: messaging.TypeSessionRefreshed, Origin: s.origin})
	mr.Publish(messaging.ChannelIdentityUpdated, string(own))
	mr.Publish(messaging.ChannelIdentityUpdated, "garbage")
	userChange, _ := json.Marshal(messaging.Message{
		Type:    messaging.TypeIdentityChanged,
		Origin:  "api",
		Payload: map[string]string{"userId": "42"},
	})
	mr.Publish(messaging.ChannelIdentityUpdated, string(userChange))

	time.Sleep(50 * time.Millisecond)
	require.Len(t, ch, 0)

	other, _ := json.Marshal(messaging.Message{Type: messaging.TypeSessionRefreshed, Origin: "elsewhere"})
	mr.Publish(messaging.ChannelIdentityUpdated, string(other))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("remote update not relayed")
	}
	assert.Len(t, ch, 0)
}

// stalledBroker holds every publish until release is closed.
type stalledBroker struct {
	release   chan struct{}
	published atomic.Int32
}

func (b *stalledBroker) Publish(ctx context.Context, _ string, _ interface{}) error {
	select {
	case <-b.release:
		b.published.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *stalledBroker) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *stalledBroker) Close() error                                             { return nil }

func TestRedisSignal_NotifyDoesNotWaitForBroker(t *testing.T) {
	broker := &stalledBroker{release: make(chan struct{})}
	s := NewRedisSignal(broker, nil)
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	returned := make(chan struct{})
	go func() {
		s.Notify()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on the broker")
	}
	select {
	case <-ch:
	default:
		t.Fatal("local subscriber not woken")
	}

	close(broker.release)
	s.Wait()
	assert.Equal(t, int32(1), broker.published.Load())
}
