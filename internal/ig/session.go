package ig

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// SessionManager holds the process-wide session and serializes
// re-authentication so concurrent pollers never stampede the login
// endpoint: the first caller to report an expired session performs the
// single re-login and later callers pick up the new Session by
// generation number.
type SessionManager struct {
	client *Client
	log    zerolog.Logger

	mu      sync.Mutex
	session *Session
	gen     uint64
}

// NewSessionManager creates a session manager around an unauthenticated client.
func NewSessionManager(client *Client, logger zerolog.Logger) *SessionManager {
	return &SessionManager{client: client, log: logger}
}

// Start performs the initial login. Failure here is fatal to startup;
// callers must abort rather than monitor with no session.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx)
}

// Current returns the live session and its generation. If no session
// is held (a previous re-login failed), one login attempt is made;
// its failure is recoverable and the caller skips the cycle.
func (m *SessionManager) Current(ctx context.Context) (*Session, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		if err := m.loginLocked(ctx); err != nil {
			return nil, 0, err
		}
	}
	return m.session, m.gen, nil
}

// Invalidate discards the session identified by gen and re-logins
// once. Callers racing on the same expired session all pass the same
// gen; only the first triggers the login, the rest receive the fresh
// session established by the winner.
func (m *SessionManager) Invalidate(ctx context.Context, gen uint64) (*Session, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen == m.gen {
		m.session = nil
		m.log.Warn().Uint64("generation", gen).Msg("session invalidated, re-authenticating")
		if err := m.loginLocked(ctx); err != nil {
			return nil, 0, err
		}
	}
	if m.session == nil {
		if err := m.loginLocked(ctx); err != nil {
			return nil, 0, err
		}
	}
	return m.session, m.gen, nil
}

// loginLocked must be called with m.mu held.
func (m *SessionManager) loginLocked(ctx context.Context) error {
	sess, err := m.client.Login(ctx)
	if err != nil {
		return err
	}
	m.session = sess
	m.gen++
	m.log.Info().Uint64("generation", m.gen).Msg("authenticated with IG API")
	return nil
}
