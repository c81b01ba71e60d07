package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/domain"
)

// Storage keys. All three must be present and consistent for a stored
// session to be loadable; partial presence is treated as no session.
const (
	keyToken      = "token"
	keyExpiration = "tokenExpiration"
	keyUser       = "user"
)

// DefaultTTL is the lifetime of a newly created session.
const DefaultTTL = 4 * time.Hour

// ErrExpired signals that a stored session was found but its deadline has
// passed. The manager has already cleaned up the stored keys.
var ErrExpired = errors.New("session expired")

// PersistenceError reports a store read or write failure. The session falls
// back to absent; the caller decides whether to surface the failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Manager owns the session lifecycle: load-on-start validation, creation on
// login, destruction on logout. It holds at most one current session and
// serializes its own operations; expiry is detected lazily, only when the
// session is consulted.
type Manager struct {
	store Store
	now   func() time.Time

	mu      sync.Mutex
	current *domain.Session
}

// NewManager creates a manager over the given store. now may be nil, in
// which case time.Now is used.
func NewManager(store Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, now: now}
}

// Load reads the stored session. It returns (nil, nil) when any of the three
// keys is absent, (nil, ErrExpired) after cleaning up an expired session, and
// a *PersistenceError when the store itself fails. A live session becomes the
// manager's current session.
func (m *Manager) Load() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok, err := m.store.Get(keyToken)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: keyToken, Err: err}
	}
	if !ok {
		return nil, nil
	}
	expRaw, ok, err := m.store.Get(keyExpiration)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: keyExpiration, Err: err}
	}
	if !ok {
		return nil, nil
	}
	userRaw, ok, err := m.store.Get(keyUser)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: keyUser, Err: err}
	}
	if !ok {
		return nil, nil
	}

	expMillis, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		// A corrupt expiration makes the session unusable; clear it.
		m.removeAll()
		return nil, ErrExpired
	}
	expiresAt := time.UnixMilli(expMillis)

	if !m.now().Before(expiresAt) {
		m.removeAll()
		return nil, ErrExpired
	}

	var user domain.User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		m.removeAll()
		return nil, ErrExpired
	}

	s := &domain.Session{Token: token, ExpiresAt: expiresAt, User: user}
	m.current = s
	return s, nil
}

// Create computes the expiry from now + ttl, persists all three session
// fields, and holds the session as current. If any write fails, nothing is
// held and the error is a *PersistenceError.
func (m *Manager) Create(token string, ttl time.Duration, user domain.User) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(ttl)

	if err := m.store.Set(keyToken, token); err != nil {
		return nil, &PersistenceError{Op: "set", Key: keyToken, Err: err}
	}
	if err := m.store.Set(keyExpiration, strconv.FormatInt(expiresAt.UnixMilli(), 10)); err != nil {
		return nil, &PersistenceError{Op: "set", Key: keyExpiration, Err: err}
	}
	userRaw, err := json.Marshal(user)
	if err != nil {
		return nil, &PersistenceError{Op: "set", Key: keyUser, Err: err}
	}
	if err := m.store.Set(keyUser, string(userRaw)); err != nil {
		return nil, &PersistenceError{Op: "set", Key: keyUser, Err: err}
	}

	s := &domain.Session{Token: token, ExpiresAt: expiresAt, User: user}
	m.current = s
	return s, nil
}

// Destroy removes the stored session keys (best-effort) and clears the
// current session. Calling it with no current session is a no-op.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeAll()
	m.current = nil
}

// removeAll clears the three stored keys. Individual removal failures are
// not fatal; the session is reported absent either way. Callers hold mu.
func (m *Manager) removeAll() {
	m.store.Remove(keyToken)      //nolint:errcheck // best-effort cleanup
	m.store.Remove(keyExpiration) //nolint:errcheck // best-effort cleanup
	m.store.Remove(keyUser)       //nolint:errcheck // best-effort cleanup
}

// Current returns the in-memory session, or nil when none is held.
func (m *Manager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentCredential returns the current session's bearer token. The second
// result is false when no session is held.
func (m *Manager) CurrentCredential() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false
	}
	return m.current.Token, true
}
