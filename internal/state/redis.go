package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "tripboard:"

// RedisStore keeps state under prefixed Redis keys with no expiry.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisStore scopes keys by namespace, typically the signed-in
// identity, so several clients can share one Redis.
func NewRedisStore(rdb redis.Cmdable, namespace string) *RedisStore {
	prefix := redisPrefix
	if namespace != "" {
		prefix += namespace + ":"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting state %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("putting state %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting state %s: %w", key, err)
	}
	return nil
}
