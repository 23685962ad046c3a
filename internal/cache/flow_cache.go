// Package cache provides a Redis-backed cache for approval flow templates.
// Flow definitions change rarely but are read on every approval action, so
// the service consults the cache before the database. A nil cache and any
// cache failure both fall through to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/erpcore/backend/internal/approval/model"
)

const flowKeyPrefix = "approval:flow:"

// FlowCache caches approval flows (with their steps) keyed by tenant and
// flow id.
type FlowCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection backing the cache.
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
}

// NewFlowCache connects to Redis and returns a FlowCache. The connection is
// verified with a ping.
func NewFlowCache(opts Options) (*FlowCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &FlowCache{client: client, ttl: ttl}, nil
}

func flowKey(tenantID string, flowID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", flowKeyPrefix, tenantID, flowID)
}

// Get returns the cached flow, or redis.Nil-wrapped error on a miss.
func (c *FlowCache) Get(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	data, err := c.client.Get(ctx, flowKey(tenantID, flowID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("flow cache get %s: %w", flowID, err)
	}
	var flow model.ApprovalFlow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("flow cache decode %s: %w", flowID, err)
	}
	return &flow, nil
}

// Set stores the flow under its tenant-scoped key.
func (c *FlowCache) Set(ctx context.Context, flow *model.ApprovalFlow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("flow cache encode %s: %w", flow.ID, err)
	}
	if err := c.client.Set(ctx, flowKey(flow.TenantID, flow.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("flow cache set %s: %w", flow.ID, err)
	}
	return nil
}

// Invalidate drops the cached flow. Called after any flow or step mutation.
func (c *FlowCache) Invalidate(ctx context.Context, tenantID string, flowID uuid.UUID) error {
	if err := c.client.Del(ctx, flowKey(tenantID, flowID)).Err(); err != nil {
		return fmt.Errorf("flow cache invalidate %s: %w", flowID, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *FlowCache) Close() error {
	return c.client.Close()
}
