package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
)

// SessionStore is a mutex-guarded map double of the Postgres session
// repository, used in tests and local development.
type SessionStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]*models.SessionRecord
}

func NewSessionStore() *SessionStore {
	return &SessionStore{rows: make(map[string]*models.SessionRecord)}
}

func (m *SessionStore) CreateSession(_ context.Context, rec models.SessionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	rec.ID = m.nextID
	m.rows[rec.RefreshToken] = &rec
	return rec.ID, nil
}

func (m *SessionStore) GetActiveSession(_ context.Context, refreshToken string) (*models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.rows[refreshToken]
	if !ok || !rec.IsActive {
		return nil, storage.ErrSessionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *SessionStore) DeactivateSession(_ context.Context, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.rows[refreshToken]; ok {
		rec.IsActive = false
		rec.UpdatedAt = time.Now()
	}
	return nil
}

func (m *SessionStore) TouchSession(_ context.Context, refreshToken string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rows[refreshToken]
	if !ok || !rec.IsActive {
		return storage.ErrSessionNotFound
	}
	rec.LastRefreshedAt = &now
	rec.RefreshCount++
	rec.UpdatedAt = now
	return nil
}

func (m *SessionStore) RotateRefreshToken(_ context.Context, oldToken, newToken string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rows[oldToken]
	if !ok || !rec.IsActive {
		return storage.ErrSessionNotFound
	}
	delete(m.rows, oldToken)
	rec.RefreshToken = newToken
	rec.LastRefreshedAt = &now
	rec.RefreshCount++
	rec.UpdatedAt = now
	m.rows[newToken] = rec
	return nil
}

func (m *SessionStore) DeactivateAllUserSessions(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.rows {
		if rec.UserID == userID {
			rec.IsActive = false
		}
	}
	return nil
}
