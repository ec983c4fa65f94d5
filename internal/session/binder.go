package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
)

type State int

const (
	StateUnloaded State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unloaded"
	}
}

var (
	ErrEmptyToken      = errors.New("session: token is empty")
	ErrInvalidIdentity = errors.New("session: identity is invalid")
)

// Binder holds the current token and identity read from a Store and answers
// permission queries against the identity's role. Its in-memory view changes
// only through Load, Refresh and Logout; Persist writes the store and fires
// the signal, and Watch turns signals into refreshes.
type Binder struct {
	store    Store
	signal   Signal
	validate *validator.Validate
	logger   *logger.Logger
	metrics  *metrics.Metrics
	onLogout func(ctx context.Context)

	// reloadMu serializes store reads with the state they produce, so an
	// older read never lands after a newer one.
	reloadMu sync.Mutex

	mu       sync.RWMutex
	state    State
	token    string
	identity *model.Identity
}

type Option func(*Binder)

func WithLogger(l *logger.Logger) Option {
	return func(b *Binder) { b.logger = l.With("session") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binder) { b.metrics = m }
}

// WithLogoutHook sets the action run after Logout clears the store, such as
// sending the user back to the login screen.
func WithLogoutHook(fn func(ctx context.Context)) Option {
	return func(b *Binder) { b.onLogout = fn }
}

func WithValidator(v *validator.Validate) Option {
	return func(b *Binder) { b.validate = v }
}

func NewBinder(store Store, signal Signal, opts ...Option) *Binder {
	b := &Binder{
		store:    store,
		signal:   signal,
		validate: validator.New(),
		logger:   logger.Nop(),
		state:    StateUnloaded,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load reads the persisted session. It never fails: anything missing or
// unreadable leaves the binder unauthenticated.
func (b *Binder) Load(ctx context.Context) State {
	return b.reload(ctx)
}

// Refresh re-reads the whole persisted record, replacing the in-memory one.
func (b *Binder) Refresh(ctx context.Context) State {
	return b.reload(ctx)
}

// Persist replaces the stored token and identity, then fires the signal.
func (b *Binder) Persist(ctx context.Context, token string, identity *model.Identity) error {
	if token == "" {
		return ErrEmptyToken
	}
	if identity == nil {
		return ErrInvalidIdentity
	}
	if err := b.validate.Struct(identity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	blob, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := b.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := b.store.Set(ctx, KeyUser, string(blob)); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}

	b.signal.Notify()
	return nil
}

// Logout clears the store and the in-memory session, fires the signal and
// runs the logout hook.
func (b *Binder) Logout(ctx context.Context) error {
	b.reloadMu.Lock()
	err := b.store.Delete(ctx, KeyToken, KeyUser)
	if err != nil {
		b.logger.Error(err, "failed to clear session")
	}
	b.setUnauthenticated()
	b.reloadMu.Unlock()

	b.signal.Notify()

	if b.onLogout != nil {
		b.onLogout(ctx)
	}
	return err
}

// Watch refreshes the binder on every signal until ctx is done.
func (b *Binder) Watch(ctx context.Context) error {
	ch, unsubscribe := b.signal.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if b.metrics != nil {
				b.metrics.RefreshSignals.Inc()
			}
			b.Refresh(ctx)
		}
	}
}

func (b *Binder) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Binder) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// Identity returns a copy of the current identity.
func (b *Binder) Identity() (*model.Identity, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateAuthenticated {
		return nil, false
	}
	return b.identity.Clone(), true
}

func (b *Binder) HasPermission(p model.Permission) bool {
	role, ok := b.role()
	return ok && rbac.HasPermission(role, p)
}

func (b *Binder) HasAnyPermission(ps ...model.Permission) bool {
	role, ok := b.role()
	return ok && rbac.HasAnyPermission(role, ps...)
}

func (b *Binder) HasAllPermissions(ps ...model.Permission) bool {
	role, ok := b.role()
	return ok && rbac.HasAllPermissions(role, ps...)
}

func (b *Binder) IsAdmin() bool {
	role, ok := b.role()
	return ok && rbac.IsAdmin(role)
}

func (b *Binder) IsSuperAdmin() bool {
	role, ok := b.role()
	return ok && rbac.IsSuperAdmin(role)
}

func (b *Binder) role() (model.Role, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateAuthenticated {
		return "", false
	}
	return b.identity.Role, true
}

func (b *Binder) reload(ctx context.Context) State {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	token, err := b.store.Get(ctx, KeyToken)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.logger.Error(err, "failed to read session token")
		}
		return b.setUnauthenticated()
	}

	blob, err := b.store.Get(ctx, KeyUser)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.logger.Error(err, "failed to read session identity")
		}
		return b.setUnauthenticated()
	}

	identity, err := b.decode(blob)
	if err != nil {
		b.logger.Warn("discarding corrupt session", "error", err.Error())
		if err := b.store.Delete(ctx, KeyToken, KeyUser); err != nil {
			b.logger.Error(err, "failed to clear corrupt session")
		}
		return b.setUnauthenticated()
	}

	if !identity.Role.Valid() {
		b.logger.Warn("session identity has unknown role", "role", identity.Role.String())
	}

	b.mu.Lock()
	from := b.state
	b.state = StateAuthenticated
	b.token = token
	b.identity = identity
	b.mu.Unlock()

	b.transition(from, StateAuthenticated)
	return StateAuthenticated
}

func (b *Binder) decode(blob string) (*model.Identity, error) {
	var identity model.Identity
	if err := json.Unmarshal([]byte(blob), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	if err := b.validate.Struct(&identity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return &identity, nil
}

func (b *Binder) setUnauthenticated() State {
	b.mu.Lock()
	from := b.state
	b.state = StateUnauthenticated
	b.token = ""
	b.identity = nil
	b.mu.Unlock()

	b.transition(from, StateUnauthenticated)
	return StateUnauthenticated
}

func (b *Binder) transition(from, to State) {
	if from == to {
		return
	}
	b.logger.Debug("session state changed", "from", from.String(), "to", to.String())
	if b.metrics != nil {
		b.metrics.SessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
	}
}
