package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

func testIdentity(role model.Role) *model.Identity {
	return &model.Identity{
		ID:        uuid.New(),
		Email:     "ana@clinic.test",
		FirstName: "Ana",
		LastName:  "Ruiz",
		Role:      role,
		IsActive:  true,
		IsNew:     true,
	}
}

func seed(t *testing.T, store Store, token, blob string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyToken, token))
	require.NoError(t, store.Set(ctx, KeyUser, blob))
}

func assertNoAccess(t *testing.T, b *Binder) {
	t.Helper()
	assert.False(t, b.HasPermission(model.PermManageUsers))
	assert.False(t, b.HasAnyPermission(model.PermManageUsers, model.PermManageStudies))
	assert.False(t, b.HasAllPermissions())
	assert.False(t, b.IsAdmin())
	assert.False(t, b.IsSuperAdmin())
	_, ok := b.Identity()
	assert.False(t, ok)
}

func TestBinder_StartsUnloaded(t *testing.T) {
	b := NewBinder(NewMemoryStore(nil, "t"), NewLocalSignal())
	assert.Equal(t, StateUnloaded, b.State())
	assertNoAccess(t, b)
}

func TestBinder_Load(t *testing.T) {
	valid := testIdentity(model.RoleAdmin)
	validBlob, err := json.Marshal(valid)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		blob      string
		want      State
		wantClear bool
	}{
		{name: "valid session", token: "tok", blob: string(validBlob), want: StateAuthenticated},
		{name: "no token", blob: string(validBlob), want: StateUnauthenticated},
		{name: "no identity", token: "tok", want: StateUnauthenticated},
		{name: "not json", token: "tok", blob: "not-json", want: StateUnauthenticated, wantClear: true},
		{name: "missing id", token: "tok", blob: `{"email":"a@b.co","role":"ADMIN"}`, want: StateUnauthenticated, wantClear: true},
		{name: "bad email", token: "tok", blob: `{"id":"` + uuid.NewString() + `","email":"nope","role":"ADMIN"}`, want: StateUnauthenticated, wantClear: true},
		{name: "missing role", token: "tok", blob: `{"id":"` + uuid.NewString() + `","email":"a@b.co"}`, want: StateUnauthenticated, wantClear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore(nil, "t")
			if tt.token != "" {
				require.NoError(t, store.Set(ctx, KeyToken, tt.token))
			}
			if tt.blob != "" {
				require.NoError(t, store.Set(ctx, KeyUser, tt.blob))
			}

			b := NewBinder(store, NewLocalSignal())
			assert.Equal(t, tt.want, b.Load(ctx))
			assert.Equal(t, tt.want, b.State())

			if tt.wantClear {
				_, err := store.Get(ctx, KeyUser)
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = store.Get(ctx, KeyToken)
				assert.ErrorIs(t, err, ErrNotFound)
			}
			if tt.want != StateAuthenticated {
				assertNoAccess(t, b)
			}
		})
	}
}

func TestBinder_QueriesDelegateToRole(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	blob, _ := json.Marshal(testIdentity(model.RoleSpecialist))
	seed(t, store, "tok", string(blob))

	b := NewBinder(store, NewLocalSignal())
	require.Equal(t, StateAuthenticated, b.Load(ctx))

	assert.Equal(t, "tok", b.Token())
	assert.True(t, b.HasPermission(model.PermManageStudies))
	assert.False(t, b.HasPermission(model.PermManageUsers))
	assert.True(t, b.HasAnyPermission(model.PermManageUsers, model.PermManageAppointments))
	assert.False(t, b.HasAllPermissions(model.PermManageUsers, model.PermManageAppointments))
	assert.True(t, b.HasAllPermissions())
	assert.False(t, b.IsAdmin())
	assert.False(t, b.IsSuperAdmin())
}

func TestBinder_UnknownRoleHasNoPermissions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	seed(t, store, "tok", `{"id":"`+uuid.NewString()+`","email":"a@b.co","role":"JANITOR"}`)

	b := NewBinder(store, NewLocalSignal())
	require.Equal(t, StateAuthenticated, b.Load(ctx))

	assert.False(t, b.HasPermission(model.PermManageUsers))
	assert.False(t, b.HasPermission(model.Permission("anything")))
	assert.False(t, b.IsAdmin())
}

func TestBinder_IdentityIsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	identity := testIdentity(model.RolePatient)
	phone := "+34 600 000 000"
	isAdmin := false
	identity.Phone = &phone
	identity.IsAdmin = &isAdmin
	blob, _ := json.Marshal(identity)
	seed(t, store, "tok", string(blob))

	b := NewBinder(store, NewLocalSignal())
	b.Load(ctx)

	id, ok := b.Identity()
	require.True(t, ok)
	id.Role = model.RoleSuperAdmin
	*id.Phone = "mutated"
	*id.IsAdmin = true
	assert.False(t, b.IsSuperAdmin())

	again, ok := b.Identity()
	require.True(t, ok)
	require.NotNil(t, again.Phone)
	assert.Equal(t, phone, *again.Phone)
	require.NotNil(t, again.IsAdmin)
	assert.False(t, *again.IsAdmin)
}

// pausingStore holds the first identity read after the value is fetched,
// until release is closed.
type pausingStore struct {
	Store
	held    atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func (s *pausingStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Store.Get(ctx, key)
	if key == KeyUser && s.held.CompareAndSwap(false, true) {
		close(s.paused)
		<-s.release
	}
	return v, err
}

func TestBinder_OverlappingReloadsKeepNewestRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	patient := testIdentity(model.RolePatient)
	blob, _ := json.Marshal(patient)
	seed(t, store, "tok-old", string(blob))

	ps := &pausingStore{Store: store, paused: make(chan struct{}), release: make(chan struct{})}
	b := NewBinder(ps, NewLocalSignal())

	loaded := make(chan State, 1)
	go func() { loaded <- b.Load(ctx) }()
	select {
	case <-ps.paused:
	case <-time.After(time.Second):
		t.Fatal("load never read the identity")
	}

	promoted := *patient
	promoted.Role = model.RoleAdmin
	require.NoError(t, b.Persist(ctx, "tok-new", &promoted))

	refreshed := make(chan State, 1)
	go func() { refreshed <- b.Refresh(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(ps.release)

	assert.Equal(t, StateAuthenticated, <-loaded)
	assert.Equal(t, StateAuthenticated, <-refreshed)
	assert.True(t, b.IsAdmin())
	assert.Equal(t, "tok-new", b.Token())
}

func TestBinder_WatchDropsCorruptRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore(nil, "t")
	signal := NewLocalSignal()
	blob, _ := json.Marshal(testIdentity(model.RoleAdmin))
	seed(t, store, "tok", string(blob))

	b := NewBinder(store, signal)
	require.Equal(t, StateAuthenticated, b.Load(ctx))

	go b.Watch(ctx)
	require.Eventually(t, func() bool { return signal.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set(ctx, KeyUser, "not-json"))
	signal.Notify()

	require.Eventually(t, func() bool { return b.State() == StateUnauthenticated }, time.Second, 5*time.Millisecond)
	assertNoAccess(t, b)
	assert.Empty(t, b.Token())

	_, err := store.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBinder_PersistThenSignalUpdatesQueries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore(nil, "t")
	signal := NewLocalSignal()
	b := NewBinder(store, signal)

	identity := testIdentity(model.RolePatient)
	require.NoError(t, b.Persist(ctx, "tok-1", identity))
	require.Equal(t, StateAuthenticated, b.Load(ctx))
	require.False(t, b.IsAdmin())

	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx) }()
	require.Eventually(t, func() bool { return signal.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	promoted := *identity
	promoted.Role = model.RoleAdmin
	require.NoError(t, b.Persist(ctx, "tok-2", &promoted))

	assert.Eventually(t, func() bool {
		return b.IsAdmin() && b.HasPermission(model.PermManageBilling) && b.Token() == "tok-2"
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, signal.Subscribers())
}

func TestBinder_PersistWritesBeforeNotify(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	signal := NewLocalSignal()
	b := NewBinder(store, signal)

	ch, unsubscribe := signal.Subscribe()
	defer unsubscribe()

	identity := testIdentity(model.RoleReceptionist)
	require.NoError(t, b.Persist(ctx, "tok", identity))

	select {
	case <-ch:
	default:
		t.Fatal("signal not fired")
	}

	blob, err := store.Get(ctx, KeyUser)
	require.NoError(t, err)
	var got model.Identity
	require.NoError(t, json.Unmarshal([]byte(blob), &got))
	assert.Equal(t, *identity, got)
}

func TestBinder_PersistRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	signal := NewLocalSignal()
	b := NewBinder(NewMemoryStore(nil, "t"), signal)

	ch, unsubscribe := signal.Subscribe()
	defer unsubscribe()

	assert.ErrorIs(t, b.Persist(ctx, "", testIdentity(model.RoleAdmin)), ErrEmptyToken)
	assert.ErrorIs(t, b.Persist(ctx, "tok", nil), ErrInvalidIdentity)
	assert.ErrorIs(t, b.Persist(ctx, "tok", &model.Identity{Email: "x@y.co", Role: model.RoleAdmin}), ErrInvalidIdentity)

	select {
	case <-ch:
		t.Fatal("signal fired for rejected persist")
	default:
	}
}

func TestBinder_Logout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "t")
	blob, _ := json.Marshal(testIdentity(model.RoleSuperAdmin))
	seed(t, store, "tok", string(blob))

	var hooked atomic.Bool
	b := NewBinder(store, NewLocalSignal(), WithLogoutHook(func(context.Context) { hooked.Store(true) }))
	require.Equal(t, StateAuthenticated, b.Load(ctx))
	require.True(t, b.IsSuperAdmin())

	require.NoError(t, b.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, b.State())
	assert.True(t, hooked.Load())
	assertNoAccess(t, b)

	_, err := store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StateUnauthenticated, b.Refresh(ctx))
}

type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) Get(context.Context, string) (string, error) { return "", errDisk }
func (failingStore) Set(context.Context, string, string) error   { return errDisk }
func (failingStore) Delete(context.Context, ...string) error     { return errDisk }

func TestBinder_StoreFailures(t *testing.T) {
	ctx := context.Background()
	b := NewBinder(failingStore{}, NewLocalSignal())

	assert.Equal(t, StateUnauthenticated, b.Load(ctx))
	assert.Error(t, b.Persist(ctx, "tok", testIdentity(model.RoleAdmin)))
	assert.Error(t, b.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, b.State())
}

func TestBinder_RecordsTransitions(t *testing.T) {
	ctx := context.Background()
	m := metrics.New("test", nil)
	store := NewMemoryStore(nil, "t")
	blob, _ := json.Marshal(testIdentity(model.RoleAdmin))
	seed(t, store, "tok", string(blob))

	b := NewBinder(store, NewLocalSignal(), WithMetrics(m))
	b.Load(ctx)
	b.Refresh(ctx)
	require.NoError(t, b.Logout(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTransitions.WithLabelValues("unloaded", "authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTransitions.WithLabelValues("authenticated", "unauthenticated")))
}
