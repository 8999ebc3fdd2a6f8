package store

import (
	"context"
	"sync"
	"time"

	"streamgate/apperr"

	"github.com/redis/go-redis/v9"
)

const consumedKeyPrefix = "streamgate:consumed:"

type RedisConsumedTokens struct {
	client *redis.Client
}

func NewRedisConsumedTokens(client *redis.Client) *RedisConsumedTokens {
	return &RedisConsumedTokens{client: client}
}

func (s *RedisConsumedTokens) Consume(ctx context.Context, id string, until time.Time) (bool, error) {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired tokens never verify, nothing to record.
		return true, nil
	}
	ok, err := s.client.SetNX(ctx, consumedKeyPrefix+id, 1, ttl).Result()
	if err != nil {
		return false, apperr.Wrap(ErrUnavailable, err)
	}
	return ok, nil
}

func (s *RedisConsumedTokens) Release(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, consumedKeyPrefix+id).Err(); err != nil {
		return apperr.Wrap(ErrUnavailable, err)
	}
	return nil
}

type MemoryConsumedTokens struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

func NewMemoryConsumedTokens() *MemoryConsumedTokens {
	return &MemoryConsumedTokens{used: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryConsumedTokens) Consume(_ context.Context, id string, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.used {
		if !exp.After(now) {
			delete(s.used, k)
		}
	}
	if _, ok := s.used[id]; ok {
		return false, nil
	}
	s.used[id] = until
	return true, nil
}

func (s *MemoryConsumedTokens) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.used, id)
	return nil
}
