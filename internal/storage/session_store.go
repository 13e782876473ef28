package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a bearer token is unknown or expired
var ErrSessionNotFound = errors.New("session not found")

// SessionStore maps bearer tokens to user ids in Redis. Tokens expire
// server-side via TTL; there is no refresh mechanism, clients re-authenticate.
type SessionStore struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewSessionStore creates a new session store
func NewSessionStore(redis *RedisCache, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: redis, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a new bearer token for a user
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.redis.Client().Set(ctx, sessionKey(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Resolve returns the user id a bearer token belongs to
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.redis.Client().Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	return userID, nil
}

// Revoke invalidates a bearer token
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.redis.Client().Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
