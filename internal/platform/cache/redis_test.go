package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_menu/internal/domain/model"
)

func newTestCache(t *testing.T) (*RedisMenuCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisMenuCache(rdb, time.Minute), mr
}

func sampleMenu() []model.MenuItem {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []model.MenuItem{
		{ID: 2, Title: "Tiramisu", Description: "Coffee and mascarpone", Category: "Dessert", Price: 6.5, Image: "https://cdn.example.com/products/tiramisu.png", CreatedAt: created, UpdatedAt: created},
		{ID: 1, Title: "Margherita", Description: "Tomato and basil", Category: "Pizza", Price: 12, Image: "https://cdn.example.com/products/margherita.png", CreatedAt: created, UpdatedAt: created},
	}
}

func TestRedisMenuCache_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	items, ok, err := c.Get(ctx, gen)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, items)

	require.NoError(t, c.Set(ctx, gen, sampleMenu()))
	assert.Equal(t, time.Minute, mr.TTL("menu:items:0"))

	items, ok, err = c.Get(ctx, gen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleMenu(), items)
}

func TestRedisMenuCache_InvalidateStartsNewGeneration(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, sampleMenu()))
	require.NoError(t, c.Invalidate(ctx))

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	_, ok, err := c.Get(ctx, gen)
	require.NoError(t, err)
	assert.False(t, ok)

	// A listing read before the write lands under the old generation.
	require.NoError(t, c.Set(ctx, 0, sampleMenu()[:1]))
	_, ok, err = c.Get(ctx, gen)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMenuCache_EmptyMenuIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, []model.MenuItem{}))
	items, ok, err := c.Get(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, items)
}

func TestRedisMenuCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("menu:items:0", "{not json"))

	_, ok, err := c.Get(context.Background(), 0)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := ConnectRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = ConnectRedis(context.Background(), mr.Addr(), "", 0)
	require.Error(t, err)
}
