package tree

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"lineage/internal/platform/redis"
	id "lineage/pkg/domain"
)

const redisKeyPrefix = "lineage:tree:"

// RedisCache stores JSON-encoded trees in Redis with a TTL, so cached trees
// survive restarts and are shared across instances. Failures log and degrade
// to a miss.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache constructs a Redis-backed tree cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func redisKey(ownerID id.UserID) string {
	return redisKeyPrefix + ownerID.String()
}

func (c *RedisCache) Get(ctx context.Context, ownerID id.UserID) ([]*Node, bool) {
	raw, err := c.client.Get(ctx, redisKey(ownerID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("tree cache read failed", "owner_id", ownerID, "error", err)
		}
		return nil, false
	}
	var roots []*Node
	if err := json.Unmarshal(raw, &roots); err != nil {
		c.logger.Warn("tree cache entry corrupt, dropping", "owner_id", ownerID, "error", err)
		c.Invalidate(ctx, ownerID)
		return nil, false
	}
	return roots, true
}

func (c *RedisCache) Set(ctx context.Context, ownerID id.UserID, roots []*Node) {
	raw, err := json.Marshal(roots)
	if err != nil {
		c.logger.Warn("tree cache encode failed", "owner_id", ownerID, "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKey(ownerID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("tree cache write failed", "owner_id", ownerID, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, ownerID id.UserID) {
	if err := c.client.Del(ctx, redisKey(ownerID)).Err(); err != nil {
		c.logger.Warn("tree cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}

var _ Cache = (*RedisCache)(nil)
