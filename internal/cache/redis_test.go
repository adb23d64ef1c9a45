package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainers "github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

func newRedisCacheForTest(t *testing.T) *RedisCache {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx, "redis:7.2-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	c, err := NewRedisCache(ctx, &RedisConfig{
		Host:        host,
		Port:        p,
		DialTimeout: 5 * time.Second,
		Prefix:      "test:" + t.Name() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_HitMiss(t *testing.T) {
	c := newRedisCacheForTest(t)

	assert.False(t, access(t, c, "a"))
	assert.True(t, access(t, c, "a"))
	assert.False(t, access(t, c, "b"))
	assert.Equal(t, -1, c.Len())
}

func TestRedisCache_TTL(t *testing.T) {
	c := newRedisCacheForTest(t)
	ctx := context.Background()

	rec := trace.AccessRecord{Key: "short", TTL: "1"}
	hit, err := c.Access(ctx, rec)
	require.NoError(t, err)
	assert.False(t, hit)

	require.Eventually(t, func() bool {
		n, err := c.client.Exists(ctx, c.prefix+"short").Result()
		return err == nil && n == 0
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisCache_EmptyKey(t *testing.T) {
	c := &RedisCache{}
	_, err := c.Access(context.Background(), trace.KeyOnly(""))
	assert.Error(t, err)
}

func TestNormalizeRedisConfig(t *testing.T) {
	_, err := normalizeRedisConfig(nil)
	assert.Error(t, err)

	_, err = normalizeRedisConfig(&RedisConfig{Port: 6379})
	assert.Error(t, err, "host is required")

	_, err = normalizeRedisConfig(&RedisConfig{Host: "localhost"})
	assert.Error(t, err, "port is required")

	_, err = normalizeRedisConfig(&RedisConfig{Cluster: true})
	assert.Error(t, err, "cluster nodes are required")

	conf, err := normalizeRedisConfig(&RedisConfig{Host: "localhost", Port: 6379})
	require.NoError(t, err)
	assert.Equal(t, defaultRedisPoolSize, conf.PoolSize)
	assert.Equal(t, defaultRedisMaxRetries, conf.MaxRetries)
	assert.Equal(t, defaultRedisDialTimeout, conf.DialTimeout)
	assert.Equal(t, DefaultRedisPrefix, conf.Prefix)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, &RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		MaxRetries:  1,
		DialTimeout: 100 * time.Millisecond,
	})
	assert.Error(t, err)
}
