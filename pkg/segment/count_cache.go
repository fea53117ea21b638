package segment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisconn "github.com/dmitrymomot/notifykit/pkg/redis"
)

// CountCache stores segment audience counts in Redis with a TTL, so that
// admin surfaces can render counts without re-running the audience query.
type CountCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// CountCacheOption configures a CountCache.
type CountCacheOption func(*CountCache)

// WithCountTTL sets how long cached counts stay valid. Default is 15 minutes.
func WithCountTTL(ttl time.Duration) CountCacheOption {
	return func(c *CountCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCountCacheFromConfig connects to Redis with the given configuration
// and wraps the client in a count cache.
func NewCountCacheFromConfig(ctx context.Context, cfg redisconn.Config, opts ...CountCacheOption) (*CountCache, error) {
	client, err := redisconn.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewCountCache(client, opts...)
}

// NewCountCache creates a Redis-backed segment count cache.
func NewCountCache(client redis.UniversalClient, opts ...CountCacheOption) (*CountCache, error) {
	if client == nil {
		return nil, ErrStoreNil
	}

	c := &CountCache{
		client: client,
		ttl:    15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Set stores the audience count for a segment.
func (c *CountCache) Set(ctx context.Context, tenantID, segmentID uuid.UUID, count int) error {
	return c.client.Set(ctx, countKey(tenantID, segmentID), count, c.ttl).Err()
}

// Get returns the cached count and whether a fresh value was present.
func (c *CountCache) Get(ctx context.Context, tenantID, segmentID uuid.UUID) (int, bool, error) {
	val, err := c.client.Get(ctx, countKey(tenantID, segmentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("segment: corrupt cached count %q: %w", val, err)
	}
	return count, true, nil
}

// Invalidate drops the cached count for a segment, typically after the
// segment's conditions change.
func (c *CountCache) Invalidate(ctx context.Context, tenantID, segmentID uuid.UUID) error {
	return c.client.Del(ctx, countKey(tenantID, segmentID)).Err()
}

func countKey(tenantID, segmentID uuid.UUID) string {
	return fmt.Sprintf("segment:count:%s:%s", tenantID, segmentID)
}
