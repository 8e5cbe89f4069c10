package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_FailsOpen(t *testing.T) {
	var nilLimiter *SlidingWindowLimiter
	ok, wait := nilLimiter.Allow(context.Background(), "k")
	assert.True(t, ok)
	assert.Zero(t, wait)

	noRedis := NewSlidingWindowLimiter(nil, 1, 0)
	for i := 0; i < 10; i++ {
		ok, _ := noRedis.Allow(context.Background(), "k")
		assert.True(t, ok)
	}

	disabled := NewSlidingWindowLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 0, 5)
	ok, _ = disabled.Allow(context.Background(), "k")
	assert.True(t, ok)
}

func TestAllow_RedisErrorFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	ok, _ := NewSlidingWindowLimiter(client, 1, 0).Allow(context.Background(), "k")
	assert.True(t, ok)
}

// Needs a live server: GRAPH_TEST_REDIS_URL=redis://localhost:6379/15
func TestAllow_Redis(t *testing.T) {
	url := os.Getenv("GRAPH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GRAPH_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	l := NewSlidingWindowLimiter(client, 2, 1)
	key := "test-" + time.Now().Format("150405.000000")
	defer client.Del(context.Background(), keyPrefix+key)

	for i := 0; i < l.Limit(); i++ {
		ok, _ := l.Allow(context.Background(), key)
		require.True(t, ok, "request %d", i)
	}
	ok, wait := l.Allow(context.Background(), key)
	assert.False(t, ok)
	assert.LessOrEqual(t, wait, time.Second)
}
