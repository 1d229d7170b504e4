package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestFetchJSONPopulatesOnce(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "students", "stats", "1")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return map[string]int{"total": 42}, nil
	}

	var first map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 42, first["total"])

	var second map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 42, second["total"])
	require.Equal(t, 1, calls)
}

func TestBumpInvalidatesVersionedKeys(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "students", "stats", "1")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "students", "stats", "1")
	require.NoError(t, err)

	require.NotEqual(t, before, after)
}

func TestNilCacheDegradesToLoader(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "a", "b")
	require.NoError(t, err)

	calls := 0
	var out map[string]int
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, calls)
	require.NoError(t, c.Bump(ctx))
}
