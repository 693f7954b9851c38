package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"restaurant_menu/internal/domain/model"
)

// ConnectRedis returns a client that has answered a PING.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	return rdb, nil
}

const (
	menuGenerationKey = "menu:gen"
	menuListKeyPrefix = "menu:items:"
)

func menuListKey(gen int64) string {
	return menuListKeyPrefix + strconv.FormatInt(gen, 10)
}

// RedisMenuCache keeps the public menu listing as one JSON value per
// generation. Stale generations are left to expire.
type RedisMenuCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMenuCache(rdb *redis.Client, ttl time.Duration) *RedisMenuCache {
	return &RedisMenuCache{rdb: rdb, ttl: ttl}
}

// Generation is zero until the first invalidation.
func (c *RedisMenuCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, menuGenerationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s: %w", menuGenerationKey, err)
	}
	return gen, nil
}

// Get reports ok=false on a cache miss.
func (c *RedisMenuCache) Get(ctx context.Context, gen int64) ([]model.MenuItem, bool, error) {
	key := menuListKey(gen)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var items []model.MenuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached menu: %w", err)
	}
	return items, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, gen int64, items []model.MenuItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode menu for cache: %w", err)
	}
	return c.rdb.Set(ctx, menuListKey(gen), raw, c.ttl).Err()
}

func (c *RedisMenuCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, menuGenerationKey).Err()
}
