package memory

import (
	"context"
	"sync"

	"github.com/gidipin/authcore/internal/models"
)

// APIKeyStore stands in for the Redis-backed API key validator in tests.
type APIKeyStore struct {
	mu      sync.RWMutex
	apiKeys map[string]models.APIKey
}

func NewAPIKeyStore(keys ...models.APIKey) *APIKeyStore {
	m := make(map[string]models.APIKey, len(keys))
	for _, k := range keys {
		m[k.Key] = k
	}
	return &APIKeyStore{apiKeys: m}
}

func (m *APIKeyStore) IsValidAPIKey(_ context.Context, apiKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.apiKeys[apiKey]
	return ok, nil
}
