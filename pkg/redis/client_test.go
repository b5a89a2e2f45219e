package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := client
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client = prev })
	return mr
}

func TestInitInvalidURL(t *testing.T) {
	assert.Error(t, Init("://invalid-url", ""))
}

func TestInit_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	prev := client
	t.Cleanup(func() { client = prev })

	require.NoError(t, Init("redis://"+mr.Addr(), "ignored-by-miniredis"))
	assert.True(t, Enabled())
}

func TestHelpers_NotConfigured(t *testing.T) {
	prev := client
	client = nil
	t.Cleanup(func() { client = prev })

	ctx := context.Background()
	assert.False(t, Enabled())
	assert.ErrorIs(t, Set(ctx, "k", "v", time.Second), ErrNotConfigured)
	_, err := Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, Del(ctx, "k"), ErrNotConfigured)
	_, err = SetNX(ctx, "k", "v", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, Expire(ctx, "k", time.Second), ErrNotConfigured)
}

func TestBasicOps(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, Set(ctx, "k", "v", time.Minute))
	v, err := Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Del(ctx, "k"))
	_, err = Get(ctx, "k")
	assert.True(t, IsNil(err))

	require.NoError(t, Set(ctx, "ttl", "v", time.Second))
	require.NoError(t, Expire(ctx, "ttl", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("ttl"))
	require.NoError(t, Expire(ctx, "ttl", time.Second))
	mr.FastForward(2 * time.Second)
	_, err = Get(ctx, "ttl")
	assert.True(t, IsNil(err))
}

func TestJSONRoundTrip(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	in := CachedResponse{Status: 201, Body: `{"success":true}`}
	require.NoError(t, SetJSON(ctx, "resp", in, time.Minute))

	var out CachedResponse
	require.NoError(t, GetJSON(ctx, "resp", &out))
	assert.Equal(t, in, out)
}
