package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), srv
}

type statsPayload struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

func TestFetchJSONPopulatesOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := testCache(t)

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return statsPayload{Count: 3, Total: 535000}, nil
	}

	key, err := c.BuildKey(ctx, "stats", "stats", "t1", "2025")
	require.NoError(t, err)

	var first statsPayload
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	var second statsPayload
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, second.Count)
}

func TestInvalidateOrphansOldKeys(t *testing.T) {
	ctx := context.Background()
	c, _ := testCache(t)

	key1, err := c.BuildKey(ctx, "stats", "stats", "t1", "2025")
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, "stats"))

	key2, err := c.BuildKey(ctx, "stats", "stats", "t1", "2025")
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)
}

func TestNilCacheFallsThrough(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	loads := 0
	var out statsPayload
	err := c.FetchJSON(ctx, "any", &out, func(ctx context.Context) (any, error) {
		loads++
		return statsPayload{Count: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 7, out.Count)

	assert.NoError(t, c.Invalidate(ctx, "stats"))
	key, err := c.BuildKey(ctx, "stats", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)
}

func TestFetchJSONExpires(t *testing.T) {
	ctx := context.Background()
	c, srv := testCache(t)

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return statsPayload{Count: loads}, nil
	}

	key, err := c.BuildKey(ctx, "stats", "k")
	require.NoError(t, err)

	var out statsPayload
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	srv.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 2, loads)
}
