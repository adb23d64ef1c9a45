package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

const (
	defaultRedisPoolSize    = 20
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second

	// DefaultRedisPrefix namespaces replayed keys.
	DefaultRedisPrefix = "accesstrace:"
)

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Cluster      bool
	ClusterNodes []string
	PoolSize     int
	MaxRetries   int
	DialTimeout  time.Duration
	Prefix       string
}

// RedisCache replays accesses against Redis. Capacity and eviction are
// whatever the server's maxmemory settings make them.
type RedisCache struct {
	client redis.UniversalClient
	prefix string

	closeOnce sync.Once
	closeErr  error
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg *RedisConfig) (*RedisCache, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}

	client := newRedisClient(conf)
	c := &RedisCache{
		client: client,
		prefix: conf.Prefix,
	}

	if err := c.pingWithRetry(ctx, conf.MaxRetries); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return c, nil
}

// Access admits the key with SET NX; an existing key is a hit.
func (c *RedisCache) Access(ctx context.Context, rec trace.AccessRecord) (bool, error) {
	if rec.Key == "" {
		return false, fmt.Errorf("key is required")
	}
	created, err := c.client.SetNX(ctx, c.prefix+rec.Key, 1, recordTTL(rec)).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", rec.Key, err)
	}
	return !created, nil
}

// Len returns -1: residency is decided by the server's eviction, not
// tracked client side.
func (c *RedisCache) Len() int { return -1 }

// Close releases Redis resources. It is idempotent.
func (c *RedisCache) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Close()
	})
	return c.closeErr
}

func (c *RedisCache) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := max(maxRetries+1, 1)

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := c.client.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("ping failed with unknown error")
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}
	if conf.Prefix == "" {
		conf.Prefix = DefaultRedisPrefix
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
	} else {
		if conf.Host == "" {
			return nil, fmt.Errorf("host is required when cluster=false")
		}
		if conf.Port <= 0 {
			return nil, fmt.Errorf("port must be positive when cluster=false, got %d", conf.Port)
		}
	}

	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}
