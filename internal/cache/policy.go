package cache

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Eviction policies understood by NewMemoryCache.
const (
	PolicyLRU  = "lru"
	PolicyFIFO = "fifo"
	PolicyLFU  = "lfu"
	Policy2Q   = "2q"
)

// Policies lists every eviction policy name.
var Policies = []string{PolicyLRU, PolicyFIFO, PolicyLFU, Policy2Q}

// ParsePolicy normalizes an eviction policy name. The empty string selects LRU.
func ParsePolicy(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "":
		return PolicyLRU, nil
	case PolicyLRU, PolicyFIFO, PolicyLFU, Policy2Q:
		return p, nil
	default:
		return "", fmt.Errorf("unknown eviction policy %q, must be one of: %s", s, strings.Join(Policies, ", "))
	}
}

// entry is what a resident key costs and when it stops being valid.
type entry struct {
	size      uint64
	expiresAt time.Time // zero means never
}

// evictor is the bookkeeping of one eviction policy over a byte budget.
// It is not safe for concurrent use; MemoryCache serializes calls.
type evictor interface {
	// get returns the entry for key and records the access.
	get(key string) (entry, bool)
	// put admits an absent key, evicting until it fits. The caller
	// guarantees e.size does not exceed the capacity.
	put(key string, e entry)
	remove(key string)
	len() int
	used() uint64
}

// unbounded lets simplelru grow; capacity is enforced in bytes by the evictors.
const unbounded = math.MaxInt

func newList[V any]() *simplelru.LRU[string, V] {
	// NewLRU only fails for a non-positive size.
	l, _ := simplelru.NewLRU[string, V](unbounded, nil)
	return l
}

func newEvictor(policy string, capacity uint64) (evictor, error) {
	switch policy {
	case PolicyLRU:
		return &recencyEvictor{capacity: capacity, items: newList[entry](), promote: true}, nil
	case PolicyFIFO:
		return &recencyEvictor{capacity: capacity, items: newList[entry]()}, nil
	case PolicyLFU:
		return &lfuEvictor{
			capacity: capacity,
			items:    make(map[string]*lfuEntry),
			buckets:  make(map[int]*simplelru.LRU[string, struct{}]),
		}, nil
	case Policy2Q:
		return &twoQEvictor{
			capacity:  capacity,
			recentMax: capacity / 4,
			recent:    newList[entry](),
			frequent:  newList[entry](),
		}, nil
	default:
		_, err := ParsePolicy(policy)
		return nil, err
	}
}

// recencyEvictor evicts the oldest entry. With promote set a hit moves the
// key to the front (LRU); without it insertion order is kept (FIFO).
type recencyEvictor struct {
	capacity uint64
	bytes    uint64
	items    *simplelru.LRU[string, entry]
	promote  bool
}

func (r *recencyEvictor) get(key string) (entry, bool) {
	if r.promote {
		return r.items.Get(key)
	}
	return r.items.Peek(key)
}

func (r *recencyEvictor) put(key string, e entry) {
	for r.bytes+e.size > r.capacity {
		_, old, ok := r.items.RemoveOldest()
		if !ok {
			break
		}
		r.bytes -= old.size
	}
	r.items.Add(key, e)
	r.bytes += e.size
}

func (r *recencyEvictor) remove(key string) {
	if old, ok := r.items.Peek(key); ok {
		r.items.Remove(key)
		r.bytes -= old.size
	}
}

func (r *recencyEvictor) len() int     { return r.items.Len() }
func (r *recencyEvictor) used() uint64 { return r.bytes }

type lfuEntry struct {
	entry
	freq int
}

// lfuEvictor evicts the least frequently used key, oldest first among
// keys with the same count.
type lfuEvictor struct {
	capacity uint64
	bytes    uint64
	items    map[string]*lfuEntry
	buckets  map[int]*simplelru.LRU[string, struct{}]
	minFreq  int // never above the lowest live frequency
}

func (l *lfuEvictor) get(key string) (entry, bool) {
	it, ok := l.items[key]
	if !ok {
		return entry{}, false
	}
	l.unlink(key, it.freq)
	if it.freq == l.minFreq && l.buckets[it.freq] == nil {
		l.minFreq++
	}
	it.freq++
	l.bucket(it.freq).Add(key, struct{}{})
	return it.entry, true
}

func (l *lfuEvictor) put(key string, e entry) {
	for l.bytes+e.size > l.capacity && len(l.items) > 0 {
		l.evict()
	}
	l.items[key] = &lfuEntry{entry: e, freq: 1}
	l.bucket(1).Add(key, struct{}{})
	l.minFreq = 1
	l.bytes += e.size
}

func (l *lfuEvictor) remove(key string) {
	it, ok := l.items[key]
	if !ok {
		return
	}
	l.unlink(key, it.freq)
	delete(l.items, key)
	l.bytes -= it.size
}

func (l *lfuEvictor) evict() {
	for l.buckets[l.minFreq] == nil {
		l.minFreq++
	}
	b := l.buckets[l.minFreq]
	key, _, _ := b.RemoveOldest()
	if b.Len() == 0 {
		delete(l.buckets, l.minFreq)
	}
	l.bytes -= l.items[key].size
	delete(l.items, key)
}

func (l *lfuEvictor) bucket(freq int) *simplelru.LRU[string, struct{}] {
	b, ok := l.buckets[freq]
	if !ok {
		b = newList[struct{}]()
		l.buckets[freq] = b
	}
	return b
}

func (l *lfuEvictor) unlink(key string, freq int) {
	b := l.buckets[freq]
	b.Remove(key)
	if b.Len() == 0 {
		delete(l.buckets, freq)
	}
}

func (l *lfuEvictor) len() int     { return len(l.items) }
func (l *lfuEvictor) used() uint64 { return l.bytes }

// twoQEvictor is a simplified 2Q: new keys enter a FIFO "recent" queue and
// move to an LRU "frequent" queue on their second access. The recent queue
// is evicted first once it holds more than a quarter of the capacity.
type twoQEvictor struct {
	capacity    uint64
	bytes       uint64
	recentBytes uint64
	recentMax   uint64
	recent      *simplelru.LRU[string, entry]
	frequent    *simplelru.LRU[string, entry]
}

func (q *twoQEvictor) get(key string) (entry, bool) {
	if e, ok := q.frequent.Get(key); ok {
		return e, true
	}
	e, ok := q.recent.Peek(key)
	if !ok {
		return entry{}, false
	}
	q.recent.Remove(key)
	q.recentBytes -= e.size
	q.frequent.Add(key, e)
	return e, true
}

func (q *twoQEvictor) put(key string, e entry) {
	for q.bytes+e.size > q.capacity && q.len() > 0 {
		q.evict()
	}
	q.recent.Add(key, e)
	q.recentBytes += e.size
	q.bytes += e.size
}

func (q *twoQEvictor) evict() {
	if q.recent.Len() > 0 && (q.recentBytes > q.recentMax || q.frequent.Len() == 0) {
		_, old, _ := q.recent.RemoveOldest()
		q.recentBytes -= old.size
		q.bytes -= old.size
		return
	}
	_, old, _ := q.frequent.RemoveOldest()
	q.bytes -= old.size
}

func (q *twoQEvictor) remove(key string) {
	if old, ok := q.recent.Peek(key); ok {
		q.recent.Remove(key)
		q.recentBytes -= old.size
		q.bytes -= old.size
		return
	}
	if old, ok := q.frequent.Peek(key); ok {
		q.frequent.Remove(key)
		q.bytes -= old.size
	}
}

func (q *twoQEvictor) len() int     { return q.recent.Len() + q.frequent.Len() }
func (q *twoQEvictor) used() uint64 { return q.bytes }
