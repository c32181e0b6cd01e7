package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisEphemeralStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisEphemeralStore(client redis.UniversalClient, prefix string) *RedisEphemeralStore {
	if prefix == "" {
		prefix = "ephemeral"
	}
	return &RedisEphemeralStore{client: client, prefix: prefix}
}

func (s *RedisEphemeralStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *RedisEphemeralStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisEphemeralStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisEphemeralStore) key(k string) string {
	return s.prefix + ":" + k
}
