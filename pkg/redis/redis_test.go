package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (IRedis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client), mr
}

func TestRedis_SetGetRoundTrip(t *testing.T) {
	r, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "finance:categories", []string{"Membership", "Equipment"}, time.Minute))

	var got []string
	ok, err := r.Get(ctx, "finance:categories", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Membership", "Equipment"}, got)
}

func TestRedis_MissAndExpiry(t *testing.T) {
	r, mr := newTestClient(t)
	ctx := context.Background()

	var got int
	ok, err := r.Get(ctx, "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "short", 42, 30*time.Second))
	mr.FastForward(31 * time.Second)

	ok, err = r.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_InvalidatePrefix(t *testing.T) {
	r, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "finance:transactions:a", 1, time.Minute))
	require.NoError(t, r.Set(ctx, "finance:transactions:b", 2, time.Minute))
	require.NoError(t, r.Set(ctx, "finance:categories", 3, time.Minute))

	require.NoError(t, r.InvalidatePrefix(ctx, "finance:transactions"))

	assert.False(t, mr.Exists("finance:transactions:a"))
	assert.False(t, mr.Exists("finance:transactions:b"))
	assert.True(t, mr.Exists("finance:categories"))

	require.NoError(t, r.InvalidatePrefix(ctx, "nothing-here"))
}
