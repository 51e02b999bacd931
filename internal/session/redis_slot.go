package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rentx:session:"

// RedisSlot holds the session record under one Redis key per client. The
// server keeps one live session per client id, same as the local backends.
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(client *redis.Client, clientID string) *RedisSlot {
	return &RedisSlot{client: client, key: redisKeyPrefix + clientID}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save writes the record with no Redis-side TTL: expiry is decided lazily by
// the manager against the record's own expires_at, so a clock-skewed Redis
// cannot cut a session short.
func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
