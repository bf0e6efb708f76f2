// Package flash keeps short messages that are shown on the next request only.
package flash

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Put(ctx context.Context, key, message string) error
	// Pop returns the pending message for key and forgets it. An empty string means none.
	Pop(ctx context.Context, key string) (string, error)
}

type entry struct {
	message string
	expires time.Time
}

type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		messages: map[string]entry{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, key, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.messages {
		if now.After(e.expires) {
			delete(s.messages, k)
		}
	}
	s.messages[key] = entry{message: message, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.messages[key]
	if !ok {
		return "", nil
	}
	delete(s.messages, key)
	if s.now().After(e.expires) {
		return "", nil
	}
	return e.message, nil
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return "flash:" + key
}

func (s *RedisStore) Put(ctx context.Context, key, message string) error {
	if err := s.client.Set(ctx, redisKey(key), message, s.ttl).Err(); err != nil {
		return fmt.Errorf("could not store flash message: %w", err)
	}
	return nil
}

func (s *RedisStore) Pop(ctx context.Context, key string) (string, error) {
	message, err := s.client.GetDel(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not read flash message: %w", err)
	}
	return message, nil
}
