// Package auth holds the signed-in user's session context and performs
// password authentication against the identity service.
package auth

import (
	"log/slog"
	"sync"

	"github.com/janahq/jana-core/pkg/store/kv"
)

// DefaultRole is assigned when no role has been persisted.
const DefaultRole = "operator"

// SessionContext is the current user's identity and role. Consumers
// receive it through Manager subscriptions rather than reading globals.
type SessionContext struct {
	UserID string
	Email  string
	Role   string
}

// LoggedIn reports whether a user is signed in.
func (c SessionContext) LoggedIn() bool {
	return c.UserID != ""
}

// Manager owns the session context. All mutation goes through SetUser,
// SetRole and ClearUser; subscribers are notified after each change.
type Manager struct {
	store  kv.Store
	logger *slog.Logger

	mu      sync.Mutex
	current SessionContext
	subs    []func(SessionContext)
}

// NewManager creates a manager with an empty session context.
func NewManager(store kv.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:   store,
		logger:  logger,
		current: SessionContext{Role: DefaultRole},
	}
}

// Restore loads the persisted login state and role.
func (m *Manager) Restore() error {
	loggedIn, err := m.store.Get(kv.KeyLoggedIn)
	if err != nil {
		return err
	}
	userID, err := m.store.Get(kv.KeyUserID)
	if err != nil {
		return err
	}
	role, err := m.store.Get(kv.KeyRole)
	if err != nil {
		return err
	}
	if role == "" {
		role = DefaultRole
	}

	m.mu.Lock()
	if loggedIn == "true" && userID != "" {
		m.current.UserID = userID
	}
	m.current.Role = role
	ctx := m.current
	m.mu.Unlock()

	m.notify(ctx)
	return nil
}

// Current returns the session context.
func (m *Manager) Current() SessionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a callback for context changes. The callback runs
// on its own goroutine.
func (m *Manager) Subscribe(fn func(SessionContext)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// SetUser records a signed-in user and persists the login state.
func (m *Manager) SetUser(userID, email string) {
	m.mu.Lock()
	m.current.UserID = userID
	m.current.Email = email
	ctx := m.current
	m.mu.Unlock()

	m.persist(kv.KeyLoggedIn, "true")
	m.persist(kv.KeyUserID, userID)
	m.notify(ctx)
}

// SetRole updates the role and persists it.
func (m *Manager) SetRole(role string) {
	if role == "" {
		role = DefaultRole
	}

	m.mu.Lock()
	m.current.Role = role
	ctx := m.current
	m.mu.Unlock()

	m.persist(kv.KeyRole, role)
	m.notify(ctx)
}

// ClearUser signs the user out, keeping the role.
func (m *Manager) ClearUser() {
	m.mu.Lock()
	m.current.UserID = ""
	m.current.Email = ""
	ctx := m.current
	m.mu.Unlock()

	m.persist(kv.KeyLoggedIn, "")
	m.persist(kv.KeyUserID, "")
	m.notify(ctx)
}

func (m *Manager) persist(key, value string) {
	if err := m.store.Set(key, value); err != nil {
		m.logger.Warn("persist session state failed", "key", key, "error", err)
	}
}

func (m *Manager) notify(ctx SessionContext) {
	m.mu.Lock()
	subs := append(([]func(SessionContext))(nil), m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		go fn(ctx)
	}
}
