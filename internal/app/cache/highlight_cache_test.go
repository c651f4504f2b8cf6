package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisCache(t *testing.T) (HighlightCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewHighlightCache(client, time.Minute, zap.NewNop()), srv
}

func TestHighlightKey(t *testing.T) {
	assert.Equal(t, "portallink:highlights:42", HighlightKey(42))
	assert.Equal(t, "portallink:highlights:gen:42", GenerationKey(42))
}

func TestNewHighlightCache_NilClient(t *testing.T) {
	c := NewHighlightCache(nil, 0, nil)
	assert.IsType(t, NopHighlightCache{}, c)

	ctx := context.Background()
	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	c.Set(ctx, 1, gen, []model.Highlight{{Position: model.PositionMain, EntityID: "a1"}})
	got, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.Nil(t, got)
	c.Invalidate(ctx, 1)
}

func TestRedisHighlightCache_RoundTrip(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, gen)

	want := []model.Highlight{
		{Position: model.PositionMain, EntityID: "a1", Title: "One", Image: "/one.png"},
		{Position: model.PositionPosition3, EntityID: "a2", Title: "Two"},
	}
	c.Set(ctx, 1, gen, want)

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Minute, srv.TTL(HighlightKey(1)))

	// Other portals are untouched.
	_, ok = c.Get(ctx, 2)
	assert.False(t, ok)
}

func TestRedisHighlightCache_InvalidateBumpsGeneration(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	c.Set(ctx, 1, 0, []model.Highlight{{Position: model.PositionMain, EntityID: "a1"}})
	require.True(t, srv.Exists(HighlightKey(1)))

	c.Invalidate(ctx, 1)
	assert.False(t, srv.Exists(HighlightKey(1)))

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	c.Invalidate(ctx, 1)
	gen, err = c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
}

func TestRedisHighlightCache_SetDropsFillFromOldGeneration(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	before, err := c.Generation(ctx, 1)
	require.NoError(t, err)

	// A write lands between the generation read and the fill.
	c.Invalidate(ctx, 1)
	c.Set(ctx, 1, before, []model.Highlight{{Position: model.PositionMain, EntityID: "old-holder"}})

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.False(t, srv.Exists(HighlightKey(1)))

	after, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	c.Set(ctx, 1, after, []model.Highlight{{Position: model.PositionMain, EntityID: "new-holder"}})
	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "new-holder", got[0].EntityID)
}

func TestRedisHighlightCache_CorruptEntryEvicted(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, srv.Set(HighlightKey(1), "{not json"))

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.False(t, srv.Exists(HighlightKey(1)))

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestRedisHighlightCache_Expires(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	c.Set(ctx, 1, 0, []model.Highlight{{Position: model.PositionMain, EntityID: "a1"}})
	srv.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestRedisHighlightCache_ServerDown(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()
	srv.Close()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	_, err := c.Generation(ctx, 1)
	assert.Error(t, err)

	// Write paths only log.
	c.Set(ctx, 1, 0, nil)
	c.Invalidate(ctx, 1)
}
