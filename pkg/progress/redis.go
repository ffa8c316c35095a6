package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisPrefix namespaces progress keys.
	DefaultRedisPrefix = "reform:progress:"
	// DefaultSessionTTL bounds how long an idle session survives.
	DefaultSessionTTL = 24 * time.Hour
)

// RedisStorage keeps snapshots in Redis with a per-session TTL. Each write
// refreshes the TTL so active sessions stay alive.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithSessionTTL overrides the session lifetime. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStorage) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStorage wraps an existing client.
func NewRedisStorage(client redis.UniversalClient, options ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("progress: redis client is required")
	}
	s := &RedisStorage{
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    DefaultSessionTTL,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// RedisConfig holds connection settings for DialRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// DialRedis opens a client and verifies the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("progress: redis ping: %w", err)
	}
	return client, nil
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set implements Storage.
func (s *RedisStorage) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Storage.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
