package cache

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"
)

type Policy string

const (
	PolicyLRU      Policy = "lru"
	PolicyLFU      Policy = "lfu"
	PolicyTTL      Policy = "ttl"
	PolicyFIFO     Policy = "fifo"
	PolicyAdaptive Policy = "adaptive"
)

type Config struct {
	Policy     Policy
	MaxEntries int
	DefaultTTL time.Duration
}

func (c Config) normalize() Config {
	out := c
	if out.Policy == "" {
		out.Policy = PolicyLRU
	}
	if out.MaxEntries <= 0 {
		out.MaxEntries = 128
	}
	return out
}

type Stats struct {
	Hits      uint64    `json:"hits"`
	Misses    uint64    `json:"misses"`
	Evictions uint64    `json:"evictions"`
	Expired   uint64    `json:"expired"`
	Entries   int       `json:"entries"`
	TotalSize int       `json:"total_size"`
	Oldest    time.Time `json:"oldest,omitempty"`
	Newest    time.Time `json:"newest,omitempty"`
}

type entry[T any] struct {
	key          string
	value        T
	createdAt    time.Time
	expiresAt    time.Time
	accessCount  int
	lastAccessed time.Time
	size         int
	generation   uint64

	elem *list.Element
}

// Cache is a keyed in-process cache with a pluggable eviction policy.
//
// LRU evicts the least-recently-touched entry, FIFO the oldest-inserted, LFU
// an entry from the lowest nonempty frequency bucket, TTL the soonest-to-
// expire. Adaptive picks the LFU victim while the observed hit ratio is low
// and the LRU victim otherwise. Under the TTL policy every entry also arms a
// timer that removes it on expiry without waiting for a Get.
type Cache[T any] struct {
	mu    sync.Mutex
	cfg   Config
	clock func() time.Time

	entries map[string]*entry[T]
	order   *list.List // front = most recent (LRU) or newest insert (FIFO)

	freq    map[int]map[string]struct{}
	minFreq int

	generation uint64
	totalSize  int
	stats      Stats
}

func New[T any](cfg Config) *Cache[T] {
	return newWithClock[T](cfg, time.Now)
}

func newWithClock[T any](cfg Config, clock func() time.Time) *Cache[T] {
	return &Cache[T]{
		cfg:     cfg.normalize(),
		clock:   clock,
		entries: make(map[string]*entry[T]),
		order:   list.New(),
		freq:    make(map[int]map[string]struct{}),
	}
}

// Get returns the cached value and bumps the entry's access bookkeeping.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	now := c.clock()
	if c.expired(e, now) {
		c.remove(e)
		c.stats.Expired++
		c.stats.Misses++
		return zero, false
	}

	c.touch(e, now)
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.cfg.DefaultTTL)
}

// SetWithTTL stores value with an explicit TTL; zero means no expiry.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if existing, ok := c.entries[key]; ok {
		c.remove(existing)
	}
	for len(c.entries) >= c.cfg.MaxEntries {
		victim := c.victim()
		if victim == nil {
			break
		}
		c.remove(victim)
		c.stats.Evictions++
	}

	c.generation++
	e := &entry[T]{
		key:          key,
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		accessCount:  0,
		size:         approximateSize(value),
		generation:   c.generation,
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
	c.totalSize += e.size
	c.addFreq(key, 0)

	if c.cfg.Policy == PolicyTTL && ttl > 0 {
		gen := e.generation
		time.AfterFunc(ttl, func() { c.expireIfCurrent(key, gen) })
	}
}

func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[T])
	c.order = list.New()
	c.freq = make(map[int]map[string]struct{})
	c.minFreq = 0
	c.totalSize = 0
	c.stats = Stats{}
}

// Cleanup sweeps TTL-expired entries and reports how many were removed.
func (c *Cache[T]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for _, e := range c.entries {
		if c.expired(e, now) {
			c.remove(e)
			c.stats.Expired++
			removed++
		}
	}
	return removed
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.stats
	out.Entries = len(c.entries)
	out.TotalSize = c.totalSize
	for _, e := range c.entries {
		if out.Oldest.IsZero() || e.createdAt.Before(out.Oldest) {
			out.Oldest = e.createdAt
		}
		if e.createdAt.After(out.Newest) {
			out.Newest = e.createdAt
		}
	}
	return out
}

func (c *Cache[T]) expired(e *entry[T], now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (c *Cache[T]) touch(e *entry[T], now time.Time) {
	c.bumpFreq(e.key, e.accessCount)
	e.accessCount++
	e.lastAccessed = now
	if c.cfg.Policy != PolicyFIFO {
		c.order.MoveToFront(e.elem)
	}
}

func (c *Cache[T]) remove(e *entry[T]) {
	delete(c.entries, e.key)
	c.order.Remove(e.elem)
	c.dropFreq(e.key, e.accessCount)
	c.totalSize -= e.size
}

func (c *Cache[T]) expireIfCurrent(key string, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.generation != generation {
		return
	}
	c.remove(e)
	c.stats.Expired++
}

func (c *Cache[T]) victim() *entry[T] {
	switch c.cfg.Policy {
	case PolicyLFU:
		return c.lfuVictim()
	case PolicyTTL:
		return c.ttlVictim()
	case PolicyAdaptive:
		total := c.stats.Hits + c.stats.Misses
		if total > 0 && float64(c.stats.Hits)/float64(total) < 0.5 {
			return c.lfuVictim()
		}
		return c.lruVictim()
	default: // lru, fifo
		return c.lruVictim()
	}
}

func (c *Cache[T]) lruVictim() *entry[T] {
	back := c.order.Back()
	if back == nil {
		return nil
	}
	return back.Value.(*entry[T])
}

func (c *Cache[T]) lfuVictim() *entry[T] {
	bucket, ok := c.freq[c.minFreq]
	for !ok || len(bucket) == 0 {
		c.minFreq++
		if c.minFreq > len(c.entries)*2+16 {
			return c.lruVictim()
		}
		bucket, ok = c.freq[c.minFreq]
	}
	for key := range bucket {
		return c.entries[key]
	}
	return nil
}

func (c *Cache[T]) ttlVictim() *entry[T] {
	var soonest *entry[T]
	for _, e := range c.entries {
		if e.expiresAt.IsZero() {
			continue
		}
		if soonest == nil || e.expiresAt.Before(soonest.expiresAt) {
			soonest = e
		}
	}
	if soonest == nil {
		return c.lruVictim()
	}
	return soonest
}

func (c *Cache[T]) addFreq(key string, count int) {
	bucket, ok := c.freq[count]
	if !ok {
		bucket = make(map[string]struct{})
		c.freq[count] = bucket
	}
	bucket[key] = struct{}{}
	if count < c.minFreq || len(c.entries) == 1 {
		c.minFreq = count
	}
}

func (c *Cache[T]) bumpFreq(key string, count int) {
	c.dropFreq(key, count)
	c.addFreq(key, count+1)
}

func (c *Cache[T]) dropFreq(key string, count int) {
	if bucket, ok := c.freq[count]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(c.freq, count)
		}
	}
}

// approximateSize uses the marshalled JSON length as a byte-size proxy; it is
// an estimate for statistics, not exact accounting.
func approximateSize(value any) int {
	raw, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return len(raw)
}
