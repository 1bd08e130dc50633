package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string // defaults to "marketplace:"
}

// RedisRepository implements Repository on Redis. Sessions carry a key TTL,
// so Redis expires them without the cleanup worker.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository connects to Redis and verifies the connection
func NewRedisRepository(ctx context.Context, cfg RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "marketplace:"
	}

	return &RedisRepository{client: client, prefix: prefix}, nil
}

func (r *RedisRepository) userKey(id string) string {
	return r.prefix + "user:" + id
}

func (r *RedisRepository) emailKey(email string) string {
	return r.prefix + "user:email:" + models.NormalizeEmail(email)
}

func (r *RedisRepository) sessionKey(token string) string {
	return r.prefix + "session:" + token
}

// CreateUser claims the email with SETNX, then stores the user record
func (r *RedisRepository) CreateUser(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(newStoredUser(u))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, r.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !claimed {
		return fmt.Errorf("%w: email %s", ErrDuplicate, models.NormalizeEmail(u.Email))
	}

	created, err := r.client.SetNX(ctx, r.userKey(u.ID), data, 0).Result()
	if err != nil || !created {
		// release the email so the registration can be retried
		r.client.Del(ctx, r.emailKey(u.Email))
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return fmt.Errorf("%w: user %s", ErrDuplicate, u.ID)
	}

	return nil
}

// GetUserByID retrieves a user by ID
func (r *RedisRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var stored storedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return stored.user()
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *RedisRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// CreateSession stores the session with a TTL matching its expiry
func (r *RedisRepository) CreateSession(ctx context.Context, s *models.Session) error {
	ttl := s.TimeRemaining(time.Now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", s.ExpiresAt)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.sessionKey(s.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: session token", ErrDuplicate)
	}
	return nil
}

// GetSessionByToken retrieves a session by its bearer token
func (r *RedisRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session; deleting a missing token is a no-op
func (r *RedisRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: session keys expire through their TTL
func (r *RedisRepository) DeleteExpiredSessions(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks Redis connectivity
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
