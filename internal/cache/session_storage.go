package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// SessionStorage implements fiber.Storage on top of go-redis so server-side
// sessions survive restarts and are shared between instances.
type SessionStorage struct {
	rdb    *redis.Client
	prefix string
}

var _ fiber.Storage = (*SessionStorage)(nil)

// NewSessionStorage returns a Redis-backed session store. Keys are namespaced by SessionPrefix.
func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return &SessionStorage{rdb: rdb, prefix: SessionPrefix}
}

func (s *SessionStorage) key(k string) string {
	return s.prefix + k
}

// Get returns nil, nil when the key does not exist.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.rdb.Get(context.Background(), s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.rdb.Set(context.Background(), s.key(key), val, exp).Err()
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.rdb.Del(context.Background(), s.key(key)).Err()
}

// Reset removes every session key.
func (s *SessionStorage) Reset() error {
	ctx := context.Background()
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the shared client is closed by the server on shutdown.
func (s *SessionStorage) Close() error {
	return nil
}
