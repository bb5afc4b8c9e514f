package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gidipin/authcore/internal/storage"
)

// CooldownStore mirrors the Redis SETNX-based cooldown for tests. NowFunc is
// injectable so expiry can be driven without sleeping.
type CooldownStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	NowFunc func() time.Time
}

func NewCooldownStore() *CooldownStore {
	return &CooldownStore{
		expires: make(map[string]time.Time),
		NowFunc: time.Now,
	}
}

func (m *CooldownStore) Acquire(_ context.Context, key string, window time.Duration) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.NowFunc()
	if until, ok := m.expires[key]; ok && until.After(now) {
		return until.Sub(now), storage.ErrCooldownActive
	}
	m.expires[key] = now.Add(window)
	return 0, nil
}
