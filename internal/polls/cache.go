package polls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classpulse/livepoll/internal/models"
)

const historyCacheKey = "livepoll:history"

// RedisHistoryCache caches history pages in one Redis hash keyed by limit,
// so a single DEL invalidates every page.
type RedisHistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHistoryCache creates a cache whose pages expire after ttl.
func NewRedisHistoryCache(client *redis.Client, ttl time.Duration) *RedisHistoryCache {
	return &RedisHistoryCache{client: client, ttl: ttl}
}

// Get returns the cached page for limit, if present.
func (c *RedisHistoryCache) Get(ctx context.Context, limit int) ([]models.PollRecord, bool, error) {
	raw, err := c.client.HGet(ctx, historyCacheKey, strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget: %w", err)
	}
	var recs []models.PollRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, fmt.Errorf("decode cached history: %w", err)
	}
	return recs, true, nil
}

// Set stores the page for limit and refreshes the hash TTL.
func (c *RedisHistoryCache) Set(ctx context.Context, limit int, recs []models.PollRecord) error {
	body, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, historyCacheKey, strconv.Itoa(limit), body)
	pipe.Expire(ctx, historyCacheKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache history: %w", err)
	}
	return nil
}

// Invalidate removes every cached page.
func (c *RedisHistoryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, historyCacheKey).Err()
}
