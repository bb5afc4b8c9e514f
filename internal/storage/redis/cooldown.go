package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gidipin/authcore/internal/storage"
)

const cooldownKeyPrefix = "verification:cooldown:"

type CooldownStore struct {
	client *redis.Client
}

func NewCooldownStore(client *redis.Client) *CooldownStore {
	return &CooldownStore{client: client}
}

// Acquire claims the issuance slot for key via SET NX with TTL. Redis executes
// the SET atomically, so of two concurrent callers exactly one wins.
func (s *CooldownStore) Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	redisKey := cooldownKeyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, time.Now().UTC().Format(time.RFC3339), window).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown setnx: %w", err)
	}
	if ok {
		return 0, nil
	}

	remaining, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown pttl: %w", err)
	}
	if remaining < 0 {
		// Key vanished between SETNX and PTTL; treat the full window as left.
		remaining = window
	}
	return remaining, storage.ErrCooldownActive
}
