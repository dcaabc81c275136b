package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session field is absent.
type ErrNotFound struct {
	Key string
}

func (e *ErrNotFound) Error() string {
	return "session key not found: " + e.Key
}

// Store is the server-side session persistence used when the merchant does
// not opt into remember-me cookies.
type Store interface {
	// Set writes one field of the session and refreshes its TTL.
	Set(ctx context.Context, sessionID, field, value string) error

	// Get reads one field; returns *ErrNotFound when absent.
	Get(ctx context.Context, sessionID, field string) (string, error)

	// Delete removes the given fields from the session.
	Delete(ctx context.Context, sessionID string, fields ...string) error

	// Clear removes the whole session.
	Clear(ctx context.Context, sessionID string) error

	// Health checks the backing store.
	Health(ctx context.Context) error

	Close() error
}

// RedisStore implements Store on a redis hash per session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(addr, password string, db int, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "addonshub:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Client exposes the underlying redis connection so other components can
// share it instead of opening a second pool.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + "sess:" + sessionID
}

func (s *RedisStore) Set(ctx context.Context, sessionID, field, value string) error {
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, sessionID, field string) (string, error) {
	v, err := s.client.HGet(ctx, s.key(sessionID), field).Result()
	if err != nil {
		if err == redis.Nil {
			return "", &ErrNotFound{Key: field}
		}
		return "", err
	}
	return v, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.client.HDel(ctx, s.key(sessionID), fields...).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
