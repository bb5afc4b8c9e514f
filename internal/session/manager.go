package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultRefreshBuffer = 5 * time.Minute

// ExpiredEvent is emitted when the session ends terminally. The consumer
// owns the redirect to a re-authentication entry point.
type ExpiredEvent struct {
	Reason string
}

// Manager owns the client session lifecycle: load a persisted session,
// schedule a refresh ahead of expiry, perform the exchange, and reduce any
// refresh failure to a single terminal action (clear plus signal).
//
// One Manager per process, owned by the application root and passed to
// whatever needs it; there is no package-level instance.
type Manager struct {
	mu         sync.Mutex
	store      CredentialStore
	refresher  Refresher
	clock      clockwork.Clock
	log        *zap.SugaredLogger
	buffer     time.Duration
	current    *Session
	timer      clockwork.Timer
	refreshing bool
	expired    chan ExpiredEvent
}

func NewManager(store CredentialStore, refresher Refresher, clock clockwork.Clock, log *zap.SugaredLogger, buffer time.Duration) *Manager {
	if buffer <= 0 {
		buffer = defaultRefreshBuffer
	}
	return &Manager{
		store:     store,
		refresher: refresher,
		clock:     clock,
		log:       log,
		buffer:    buffer,
		expired:   make(chan ExpiredEvent, 1),
	}
}

// Init loads the persisted session. An already-expired session is discarded
// (wall-clock comparison: the blob may be read after an arbitrary real-world
// delay); a valid one is adopted and a refresh is scheduled.
func (m *Manager) Init() error {
	s, err := m.store.Load()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	if !s.ExpiresAt.After(m.clock.Now()) {
		m.log.Infow("persisted session already expired, discarding", "user_id", s.UserID)
		return m.store.Clear()
	}

	m.mu.Lock()
	m.current = s
	m.scheduleLocked()
	m.mu.Unlock()

	m.log.Infow("session adopted", "user_id", s.UserID, "expires_at", s.ExpiresAt)
	return nil
}

// SetSession adopts a new token pair. Expiry and user id are derived from
// the access token's own claims; they are never taken on faith from the
// caller, so client and server views of expiry cannot diverge.
func (m *Manager) SetSession(accessToken, refreshToken string) error {
	claims, err := DecodeClaims(accessToken)
	if err != nil {
		return err
	}

	s := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    claims.ExpiresAt,
		UserID:       claims.UserID,
	}
	if err := m.store.Save(s); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = s
	m.scheduleLocked()
	m.mu.Unlock()
	return nil
}

// AccessToken returns the current token only while it is unexpired. Callers
// must not cache a returned token as valid; this check at call time is the
// only authority.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.ExpiresAt.After(m.clock.Now()) {
		return "", false
	}
	return m.current.AccessToken, true
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.AccessToken()
	return ok
}

// RefreshToken exposes the current refresh token for explicit revocation
// (logout sends it to the server before clearing).
func (m *Manager) RefreshToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return "", false
	}
	return m.current.RefreshToken, true
}

func (m *Manager) UserID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return "", false
	}
	return m.current.UserID, true
}

// ClearSession cancels any pending refresh timer, drops in-memory state and
// erases persisted storage. Idempotent. Cancelling the timer matters: a
// stale firing after a clear could otherwise resurrect a discarded session.
func (m *Manager) ClearSession() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Errorw("failed to clear session store", "error", err)
	}
}

// Refresh forces the exchange outside the schedule, under the same
// re-entrancy guard as the timer path.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.doRefresh(ctx)
}

// Expired delivers the terminal session-expired signal.
func (m *Manager) Expired() <-chan ExpiredEvent {
	return m.expired
}

// scheduleLocked arms the refresh timer for expiry minus the buffer. Caller
// holds m.mu.
func (m *Manager) scheduleLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.current == nil {
		return
	}

	delay := m.current.ExpiresAt.Sub(m.clock.Now()) - m.buffer
	if delay <= 0 {
		go func() {
			if err := m.doRefresh(context.Background()); err != nil {
				m.log.Warnw("immediate refresh failed", "error", err)
			}
		}()
		return
	}

	m.timer = m.clock.AfterFunc(delay, func() {
		if err := m.doRefresh(context.Background()); err != nil {
			m.log.Warnw("scheduled refresh failed", "error", err)
		}
	})
}

func (m *Manager) doRefresh(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing || m.current == nil {
		// Another refresh is in flight, or the session was cleared after
		// the timer fired; either way this firing is a no-op.
		m.mu.Unlock()
		return nil
	}
	m.refreshing = true
	refreshToken := m.current.RefreshToken
	m.mu.Unlock()

	pair, err := m.refresher.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshing = false
	// The session may have been cleared or replaced while the exchange ran;
	// adopting the result then would resurrect a discarded session.
	stale := m.current == nil || m.current.RefreshToken != refreshToken
	m.mu.Unlock()

	if stale {
		m.log.Infow("session changed during refresh, discarding result")
		return nil
	}

	if err != nil {
		// All refresh failures are terminal for the client state machine:
		// clear and signal, never retry silently.
		m.log.Warnw("refresh failed, ending session", "error", err)
		m.ClearSession()
		m.emitExpired("refresh_failed")
		return err
	}

	if err := m.SetSession(pair.AccessToken, pair.RefreshToken); err != nil {
		m.log.Errorw("refreshed token unusable, ending session", "error", err)
		m.ClearSession()
		m.emitExpired("invalid_token")
		return err
	}
	return nil
}

func (m *Manager) emitExpired(reason string) {
	select {
	case m.expired <- ExpiredEvent{Reason: reason}:
	default:
	}
}
