package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SmitUplenchwar2687/accesstrace/internal/clock"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// MemoryCache is an in-process cache bounded by capacity units. A record
// costs its size column, or 1 when the trace carries no sizes, so capacity
// is bytes for sized traces and keys for key-only ones.
// It uses a Clock for expiration checks so TTLs follow trace time.
// Thread-safe for concurrent use.
type MemoryCache struct {
	mu       sync.Mutex
	policy   string
	capacity uint64
	ev       evictor
	clock    clock.Clock
}

// NewMemoryCache creates a cache with the given eviction policy and capacity.
func NewMemoryCache(policy string, capacity uint64, c clock.Clock) (*MemoryCache, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	p, err := ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	ev, err := newEvictor(p, capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{policy: p, capacity: capacity, ev: ev, clock: c}, nil
}

// Access reports a hit when rec.Key is resident and unexpired. On a miss
// the key is admitted unless it alone is larger than the cache.
func (m *MemoryCache) Access(_ context.Context, rec trace.AccessRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if e, ok := m.ev.get(rec.Key); ok {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			return true, nil
		}
		m.ev.remove(rec.Key)
	}

	size := recordSize(rec)
	if size > m.capacity {
		return false, nil
	}
	var expiresAt time.Time
	if ttl := recordTTL(rec); ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	m.ev.put(rec.Key, entry{size: size, expiresAt: expiresAt})
	return false, nil
}

// Len returns the number of resident keys, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ev.len()
}

// Used returns the capacity units held by resident keys.
func (m *MemoryCache) Used() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ev.used()
}

// Capacity returns the configured capacity.
func (m *MemoryCache) Capacity() uint64 { return m.capacity }

// Policy returns the eviction policy name.
func (m *MemoryCache) Policy() string { return m.policy }

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ev, _ = newEvictor(m.policy, m.capacity)
	return nil
}
