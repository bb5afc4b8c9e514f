package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
)

type VerificationCodeStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.VerificationCode
}

func NewVerificationCodeStore() *VerificationCodeStore {
	return &VerificationCodeStore{}
}

func (m *VerificationCodeStore) CreateCode(_ context.Context, code models.VerificationCode) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	code.ID = m.nextID
	m.rows = append(m.rows, &code)
	return code.ID, nil
}

func (m *VerificationCodeStore) ConsumeCode(_ context.Context, identifier, code string, now time.Time) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Newest matching live row wins, same ordering as the SQL repo.
	var match *models.VerificationCode
	for _, rec := range m.rows {
		if rec.Identifier != identifier || rec.Code != code {
			continue
		}
		if rec.UsedAt != nil || !rec.ExpiresAt.After(now) {
			continue
		}
		if match == nil || rec.CreatedAt.After(match.CreatedAt) {
			match = rec
		}
	}
	if match == nil {
		return nil, storage.ErrCodeNotFound
	}

	used := now
	match.UsedAt = &used
	match.Status = models.CodeStatusVerified
	cp := *match
	return &cp, nil
}

func (m *VerificationCodeStore) DeleteExpiredCodes(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*models.VerificationCode
	var removed int64
	for _, rec := range m.rows {
		expired := rec.ExpiresAt.Before(cutoff)
		consumed := rec.UsedAt == nil || rec.UsedAt.Before(cutoff)
		if expired && consumed {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.rows = kept
	return removed, nil
}

// Count reports live rows; test helper.
func (m *VerificationCodeStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
