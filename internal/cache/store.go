package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
)

// Store caches JSON-encodable values by key.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// RedisStore keeps snappy-compressed JSON payloads in redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(decoded, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, snappy.Encode(nil, payload), ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// MemoryStore is the fallback when redis is not configured.
type MemoryStore struct {
	items Cache[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: NewTTLCache[string, []byte]()}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := s.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items.Set(key, payload, ttl)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, prefix string) error {
	var stale []string
	s.items.Range(func(key string, _ []byte) bool {
		if strings.HasPrefix(key, prefix) {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		s.items.Delete(key)
	}
	return nil
}
