package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterSnapshot is the cached copy of one user's denormalized counters.
// It is advisory: the graph store is the source of truth and the snapshot is
// invalidated after every settled mutation so the next read reconciles.
type CounterSnapshot struct {
	FollowerCount         int64 `json:"follower_count"`
	FollowingCount        int64 `json:"following_count"`
	MutualFriendshipCount int64 `json:"mutual_friendship_count"`
}

// CounterCache defines the interface for the counter snapshot cache
type CounterCache interface {
	Get(ctx context.Context, userID string) (*CounterSnapshot, bool, error)
	Set(ctx context.Context, userID string, snap CounterSnapshot) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

const counterKeyPrefix = "counters:"

// RedisCounterCache implements CounterCache on Redis with a short TTL so
// stale speculative values age out even if an invalidation is lost.
type RedisCounterCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCounterCache creates a new RedisCounterCache
func NewRedisCounterCache(rdb *redis.Client, ttl time.Duration) *RedisCounterCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCounterCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCounterCache) Get(ctx context.Context, userID string) (*CounterSnapshot, bool, error) {
	data, err := c.rdb.Get(ctx, counterKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var snap CounterSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (c *RedisCounterCache) Set(ctx context.Context, userID string, snap CounterSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, counterKeyPrefix+userID, data, c.ttl).Err()
}

func (c *RedisCounterCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = counterKeyPrefix + id
	}
	return c.rdb.Del(ctx, keys...).Err()
}
