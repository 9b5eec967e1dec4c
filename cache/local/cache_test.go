package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestKV_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestKV_GetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKV_TTLExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	exists, _ := c.Exists(ctx, "k")
	assert.False(t, exists)
}

func TestKV_Del(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Del(ctx, "a", "b"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetNX_OnlyFirstWins(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "2", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := c.Get(ctx, "lock")
	assert.Equal(t, "1", v)
}

func TestSetNX_ExpiredKeyCanBeRetaken(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, _ := c.SetNX(ctx, "lock", "1", 20*time.Millisecond)
	require.True(t, ok)
	time.Sleep(40 * time.Millisecond)

	ok, _ = c.SetNX(ctx, "lock", "2", 0)
	assert.True(t, ok)
}

func TestZSet_RevRangeOrdersByScore(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "lb", 10, "alice"))
	require.NoError(t, c.ZAdd(ctx, "lb", 30, "carol"))
	require.NoError(t, c.ZAdd(ctx, "lb", 20, "bob"))

	members, err := c.ZRevRange(ctx, "lb", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, members)

	top, err := c.ZRevRange(ctx, "lb", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob"}, top)
}

func TestZSet_AddUpdatesScore(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "lb", 10, "alice"))
	require.NoError(t, c.ZAdd(ctx, "lb", 99, "alice"))

	score, err := c.ZScore(ctx, "lb", "alice")
	require.NoError(t, err)
	assert.Equal(t, 99.0, score)
}

func TestZSet_ScoreMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.ZScore(context.Background(), "lb", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
