package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Advice string `json:"advice"`
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFromClient(client), mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	var got payload
	found, err := c.Get(ctx, "advice:s1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "advice:s1", payload{Advice: "practice"}, time.Minute))
	assert.True(t, mr.Exists("schoolmate:advice:s1"))

	found, err = c.Get(ctx, "advice:s1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "practice", got.Advice)

	require.NoError(t, c.Delete(ctx, "advice:s1"))
	found, err = c.Get(ctx, "advice:s1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "k", payload{Advice: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewFromClient(client, WithPrefix("test:"))
	require.NoError(t, c.Set(context.Background(), "k", 1, 0))
	assert.True(t, mr.Exists("test:k"))
}

func TestRedisDecodeError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	require.NoError(t, mr.Set("schoolmate:bad", "{not json"))

	var got payload
	_, err := c.Get(ctx, "bad", &got)
	assert.Error(t, err)
}

func TestNewRedisInvalidURL(t *testing.T) {
	_, err := NewRedis("://nope")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	found, err := c.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Delete(ctx, "k"))
}
