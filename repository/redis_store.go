package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisNamespace = "alpunto:local"

// RedisStoreFactory stores values under alpunto:local:<client>:<key>.
// Every write refreshes the TTL of that key.
type RedisStoreFactory struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStoreFactory(client *redis.Client, ttl time.Duration) *RedisStoreFactory {
	return &RedisStoreFactory{Client: client, TTL: ttl}
}

func (f *RedisStoreFactory) For(clientID string) LocalStore {
	return &RedisStore{client: f.Client, prefix: redisNamespace + ":" + clientID + ":", ttl: f.TTL}
}

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.prefix+k)
	}
	return s.client.Del(ctx, full...).Err()
}
