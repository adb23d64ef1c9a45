package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

const (
	// BackendMemory is the in-process LRU cache.
	BackendMemory = "memory"
	// BackendRedis replays accesses against a Redis server.
	BackendRedis = "redis"
)

// Cache receives the accesses of a replayed trace.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Access looks up rec.Key and admits it on a miss. It reports whether
	// the key was already resident.
	Access(ctx context.Context, rec trace.AccessRecord) (bool, error)

	// Len returns the number of resident keys, or -1 when the backend
	// cannot tell.
	Len() int

	// Close releases any resources held by the cache.
	Close() error
}

// recordTTL returns the record's ttl column as a duration.
// Missing or non-numeric values mean no expiration.
func recordTTL(rec trace.AccessRecord) time.Duration {
	secs, err := strconv.ParseInt(rec.TTL, 10, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// recordSize returns the capacity units the record occupies: its size
// column when positive, otherwise 1, so key-only traces count keys.
func recordSize(rec trace.AccessRecord) uint64 {
	n, err := strconv.ParseUint(rec.Size, 10, 64)
	if err != nil || n == 0 {
		return 1
	}
	return n
}
