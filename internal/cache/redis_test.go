package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.RunContainer(ctx, testcontainers.WithImage("docker.io/redis:7"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	addr := strings.TrimPrefix(uri, "redis://")

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCache(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	c := NewRedisCacheWithClient(client, time.Minute)

	_, ok := c.Get(ctx, "FCO|CDG")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "FCO|CDG", []byte(`[]`)))

	got, ok := c.Get(ctx, "FCO|CDG")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), got)

	ttl, err := client.TTL(ctx, "itineraries:"+hashKey("FCO|CDG")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}
