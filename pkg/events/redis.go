package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisChannel is the pub/sub channel used by RedisForwarder.
const DefaultRedisChannel = "reform:events"

// RedisForwarder publishes events as JSON on a Redis channel so other
// processes can observe a session.
type RedisForwarder struct {
	client  redis.UniversalClient
	channel string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRedisForwarder builds a forwarder. An empty channel uses the default.
func NewRedisForwarder(client redis.UniversalClient, channel string, logger zerolog.Logger) (*RedisForwarder, error) {
	if client == nil {
		return nil, errors.New("events: redis client is required")
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisForwarder{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		logger:  logger,
	}, nil
}

// Publish sends e and returns any transport error.
func (f *RedisForwarder) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Name, err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("events: redis publish: %w", err)
	}
	return nil
}

// Handler adapts the forwarder to a Bus subscription. Failures are logged.
func (f *RedisForwarder) Handler() Handler {
	return func(e Event) {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if err := f.Publish(ctx, e); err != nil {
			f.logger.Warn().Err(err).Str("event", string(e.Name)).Msg("event forward failed")
		}
	}
}
