package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/types"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "resume-optimizer:analysis:abc:SIMPLE:fast", Key("abc", types.TierSimple, types.ModeFast))
	assert.NotEqual(t, Key("abc", types.TierSimple, types.ModeFast), Key("abc", types.TierMedium, types.ModeFast))
}

func TestRedis_RoundTrip(t *testing.T) {
	_, client := setupMiniredis(t)
	c := New(client, time.Minute)
	ctx := context.Background()

	miss, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, miss)

	result := &types.AnalysisResult{
		OptimizedResume: "Go engineer",
		Language:        "en",
		Improvements:    []types.Improvement{},
		AnalysisTrace:   types.AnalysisTrace{InputHash: "abc", Tier: types.TierSimple, Retries: 1},
	}
	key := Key("abc", types.TierSimple, types.ModeBalanced)
	require.NoError(t, c.Set(ctx, key, result))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go engineer", got.OptimizedResume)
	assert.Equal(t, 1, got.AnalysisTrace.Retries)
}

func TestRedis_Expires(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := New(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", &types.AnalysisResult{}))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_CorruptEntry(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := New(client, 0)
	require.NoError(t, mr.Set("k", "{not json"))

	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	addr := mr.Addr()
	c, err := Connect(context.Background(), addr, "", 0, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, c.Close())

	mr.Close()
	_, err = Connect(context.Background(), addr, "", 0, time.Minute)
	assert.Error(t, err)
}
