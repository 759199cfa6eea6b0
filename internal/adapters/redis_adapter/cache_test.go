// internal/adapters/redis_adapter/cache_test.go
package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/shopledger-be/internal/adapters/redis_adapter"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/test/helpers"
)

type dashboardPayload struct {
	Total     string `json:"total"`
	SaleCount int64  `json:"sale_count"`
}

func setupCache(t *testing.T) (*helpers.TestRedis, ports.CacheRepository) {
	t.Helper()

	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())
	return tr, cache
}

func TestCache_SetAndGet(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	stored := dashboardPayload{Total: "123.45", SaleCount: 7}
	require.NoError(t, cache.Set(ctx, "dashboard:profits:1:2", stored))

	var loaded dashboardPayload
	require.NoError(t, cache.Get(ctx, "dashboard:profits:1:2", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestCache_GetMiss(t *testing.T) {
	_, cache := setupCache(t)

	var dest dashboardPayload
	err := cache.Get(context.Background(), "missing-key", &dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_SetWithTTL_Expires(t *testing.T) {
	tr, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetWithTTL(ctx, "short-lived", "value", 10*time.Second))

	var dest string
	require.NoError(t, cache.Get(ctx, "short-lived", &dest))

	tr.Server.FastForward(11 * time.Second)

	err := cache.Get(ctx, "short-lived", &dest)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key-1", "a"))
	require.NoError(t, cache.Set(ctx, "key-2", "b"))

	require.NoError(t, cache.Delete(ctx, "key-1", "key-2"))

	exists, err := cache.Exists(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting nothing is a no-op
	require.NoError(t, cache.Delete(ctx))
}

func TestCache_DeletePattern(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "dashboard:profits:1:2", "a"))
	require.NoError(t, cache.Set(ctx, "dashboard:profits:3:4", "b"))
	require.NoError(t, cache.Set(ctx, "inventory:list:1", "c"))

	require.NoError(t, cache.DeletePattern(ctx, "dashboard:*"))

	exists, err := cache.Exists(ctx, "dashboard:profits:1:2")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "inventory:list:1")
	require.NoError(t, err)
	assert.True(t, exists, "non-matching keys must survive")
}

func TestCache_GetOrSet(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	fetchCount := 0
	fetch := func() (interface{}, error) {
		fetchCount++
		return dashboardPayload{Total: "50.00", SaleCount: 2}, nil
	}

	var first dashboardPayload
	require.NoError(t, cache.GetOrSet(ctx, "dashboard:profits:9:9", &first, fetch, time.Minute))
	assert.Equal(t, 1, fetchCount)
	assert.Equal(t, "50.00", first.Total)

	// Second call is served from cache without re-fetching
	var second dashboardPayload
	require.NoError(t, cache.GetOrSet(ctx, "dashboard:profits:9:9", &second, fetch, time.Minute))
	assert.Equal(t, 1, fetchCount)
	assert.Equal(t, first, second)
}

func TestCache_SetNX(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	ok, err := cache.SetNX(ctx, "lock:export", "holder-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "lock:export", "holder-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim on a held lock must fail")
}

func TestCache_Ping(t *testing.T) {
	tr, cache := setupCache(t)

	require.NoError(t, cache.Ping(context.Background()))

	tr.Server.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "dashboard_window",
			prefix:   redis_a.PrefixDashboard,
			parts:    []string{"profits", "1704067200", "1706745600"},
			expected: "dashboard:profits:1704067200:1706745600",
		},
		{
			name:     "sale_by_invoice",
			prefix:   redis_a.PrefixSale,
			parts:    []string{"TRN-00001"},
			expected: "sale:TRN-00001",
		},
		{
			name:     "bare_prefix",
			prefix:   redis_a.PrefixInventory,
			parts:    nil,
			expected: "inventory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
