package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refreshToken:"

var rotateScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  return -1
end
if current ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(userID), tokenHash, ttl).Err()
}

func (s *RedisStore) Rotate(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) error {
	res, err := rotateScript.Run(ctx, s.rdb, []string{key(userID)}, oldHash, newHash, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("rotate script: %w", err)
	}
	switch res {
	case 1:
		return nil
	case -1:
		return ErrNoToken
	default:
		return ErrTokenMismatch
	}
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	v, err := s.rdb.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	return v, err
}

func (s *RedisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}
