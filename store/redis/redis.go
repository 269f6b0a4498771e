// Package redis implements store.SessionStore on Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuga-i2/DOCUFORGE-AI/store"
)

// RedisSessionStore implements store.SessionStore using Redis.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "docuforge:"
	TTL      time.Duration // Expiration for results, default 0 (no expiration)
}

// NewRedisSessionStore creates a new Redis-backed session store.
func NewRedisSessionStore(opts RedisOptions) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "docuforge:"
	}

	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// NewRedisSessionStoreWithClient wraps an existing client. Useful for tests.
func NewRedisSessionStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "docuforge:"
	}
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) resultKey(sessionID string) string {
	return fmt.Sprintf("%sresult:%s", s.prefix, sessionID)
}

func (s *RedisSessionStore) indexKey() string {
	return s.prefix + "sessions"
}

// Close closes the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// Save stores a run result and indexes the session ID.
func (s *RedisSessionStore) Save(ctx context.Context, result *store.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.resultKey(result.SessionID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), result.SessionID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.indexKey(), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session result to redis: %w", err)
	}
	return nil
}

// Load retrieves a run result by session ID.
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*store.Result, error) {
	data, err := s.client.Get(ctx, s.resultKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session result from redis: %w", err)
	}

	var result store.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session result: %w", err)
	}
	return &result, nil
}

// Delete removes a run result and its index entry.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.resultKey(sessionID))
	pipe.SRem(ctx, s.indexKey(), sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session result from redis: %w", err)
	}
	return nil
}

// List returns all stored session IDs. Order is unspecified.
func (s *RedisSessionStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions from redis: %w", err)
	}
	return ids, nil
}
