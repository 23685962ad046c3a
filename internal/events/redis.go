package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher publishes events to a Redis channel per event type, for
// consumption by downstream notification and reporting services.
//
// Channel convention: <prefix>.<event type>, e.g. "erp.events.approval.approved".
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures the Redis connection for event publishing.
type RedisOptions struct {
	Addr          string
	Password      string
	DB            int
	PoolSize      int
	ChannelPrefix string
}

// NewRedisPublisher connects to Redis and returns a publisher. The
// connection is verified with a ping before use.
func NewRedisPublisher(opts RedisOptions) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := opts.ChannelPrefix
	if prefix == "" {
		prefix = "erp.events"
	}

	return &RedisPublisher{client: client, prefix: prefix}, nil
}

// Publish serializes the event as JSON and publishes it on the channel for
// its type.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	channel := fmt.Sprintf("%s.%s", p.prefix, event.Type)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event on %s: %w", channel, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
