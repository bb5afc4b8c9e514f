package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
)

type PinCredentialStore struct {
	mu   sync.Mutex
	rows map[string]*models.PinCredential
}

func NewPinCredentialStore() *PinCredentialStore {
	return &PinCredentialStore{rows: make(map[string]*models.PinCredential)}
}

func (m *PinCredentialStore) UpsertCredential(_ context.Context, cred models.PinCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred.FailedAttempts = 0
	cred.LockedUntil = nil
	m.rows[cred.UserID] = &cred
	return nil
}

func (m *PinCredentialStore) GetCredential(_ context.Context, userID string) (*models.PinCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.rows[userID]
	if !ok {
		return nil, storage.ErrCredentialNotFound
	}
	cp := *cred
	return &cp, nil
}

func (m *PinCredentialStore) RecordFailedAttempt(_ context.Context, userID string, threshold int, lockedUntil time.Time) (*models.PinCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.rows[userID]
	if !ok {
		return nil, storage.ErrCredentialNotFound
	}
	cred.FailedAttempts++
	if cred.FailedAttempts >= threshold {
		lu := lockedUntil
		cred.LockedUntil = &lu
	}
	cred.UpdatedAt = time.Now()
	cp := *cred
	return &cp, nil
}

func (m *PinCredentialStore) ResetFailedAttempts(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.rows[userID]
	if !ok {
		return storage.ErrCredentialNotFound
	}
	cred.FailedAttempts = 0
	cred.LockedUntil = nil
	cred.UpdatedAt = time.Now()
	return nil
}
