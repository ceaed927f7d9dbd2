// Package session implements server-side sessions keyed by an opaque token
// carried in an HttpOnly cookie. Session state lives outside the process
// (Redis) so that any number of API instances can share it; a map-backed
// implementation exists for tests and demo mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a token is unknown, expired or already
// destroyed.
var ErrNoSession = errors.New("no active session")

// Manager creates, resolves and destroys sessions.
type Manager interface {
	// Create opens a session for the user and returns its opaque token.
	Create(ctx context.Context, userID uint) (string, error)
	// UserID resolves a token to the owning user ID.
	UserID(ctx context.Context, token string) (uint, error)
	// Destroy invalidates a token. Destroying an unknown token is not an error.
	Destroy(ctx context.Context, token string) error
}

const redisKeyPrefix = "session:"

// RedisManager stores sessions in Redis with a TTL.
type RedisManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisManager creates a Redis-backed session manager.
func NewRedisManager(client *redis.Client, ttl time.Duration) *RedisManager {
	return &RedisManager{client: client, ttl: ttl}
}

func (m *RedisManager) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	key := redisKeyPrefix + token
	if err := m.client.Set(ctx, key, userID, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (m *RedisManager) UserID(ctx context.Context, token string) (uint, error) {
	val, err := m.client.Get(ctx, redisKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read session: %w", err)
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value %q: %w", val, err)
	}
	return uint(userID), nil
}

func (m *RedisManager) Destroy(ctx context.Context, token string) error {
	if err := m.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
