package session

import (
	"sync"
	"time"

	"platefeed/internal/auth"
	"platefeed/internal/models"
)

// State is the session lifecycle position.
type State int

const (
	// Unauthenticated means no credential is held.
	Unauthenticated State = iota
	// Restoring means a persisted credential is being inspected at startup.
	Restoring
	// Authenticated means a credential is held and not yet known to be stale.
	Authenticated
	// Expired means the held credential stopped working; the user must log in
	// again, but the UI can say so rather than pretend they never were.
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Manager tracks the client's session. It never holds the signing secret, so
// it only decodes tokens to read their expiry; the server remains the
// authority on validity.
type Manager struct {
	store CredentialStore
	now   func() time.Time

	mu       sync.Mutex
	state    State
	token    string
	identity auth.Identity
	expiry   time.Time
}

func NewManager(store CredentialStore) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		state: Unauthenticated,
	}
}

// Restore loads the persisted credential, if any, and decides the starting
// state. A credential that is missing, unreadable, undecodable, or already
// past its expiry leaves the client Unauthenticated with the store purged;
// restore never produces Expired, that state is reserved for sessions that
// died while in use.
func (m *Manager) Restore() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Restoring

	cred, err := m.store.Load()
	if err != nil || cred == nil {
		m.resetLocked()
		return m.state
	}

	identity, expiry, err := auth.DecodeUnverified(cred.Token)
	if err != nil {
		m.resetLocked()
		return m.state
	}
	if !expiry.After(m.now()) {
		m.resetLocked()
		return m.state
	}

	m.state = Authenticated
	m.token = cred.Token
	m.identity = identity
	m.expiry = expiry
	return m.state
}

// Adopt installs a freshly issued credential after login or registration and
// persists it for the next start.
func (m *Manager) Adopt(token string, user models.PublicUser) error {
	identity, expiry, err := auth.DecodeUnverified(token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(&Credential{Token: token, User: user}); err != nil {
		return err
	}

	m.state = Authenticated
	m.token = token
	m.identity = identity
	m.expiry = expiry
	return nil
}

// Logout drops the session deliberately.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Clear()
	m.resetLocked()
	return err
}

// HandleUnauthorized records that the server rejected the held credential.
// The credential is purged so the next start does not retry it.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.store.Clear()
	m.resetLocked()
	m.state = Expired
}

// Token returns the held token, if the session is live.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Authenticated {
		return "", false
	}
	// The expiry is checked lazily so a session that aged out while the app
	// was open is reported rather than sent to the server.
	if !m.expiry.After(m.now()) {
		_ = m.store.Clear()
		m.resetLocked()
		m.state = Expired
		return "", false
	}
	return m.token, true
}

// State reports the current lifecycle position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns who the held token asserts, when Authenticated.
func (m *Manager) Identity() (auth.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Authenticated {
		return auth.Identity{}, false
	}
	return m.identity, true
}

func (m *Manager) resetLocked() {
	m.state = Unauthenticated
	m.token = ""
	m.identity = auth.Identity{}
	m.expiry = time.Time{}
}
