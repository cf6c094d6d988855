package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/invalidation"
)

// QueryCache maps query keys to JSON encoded results with LRU and TTL
// eviction. Entries are marked stale by Invalidate and refetched on the
// next Fetch. Each key carries a generation number that Invalidate bumps,
// so a load that started before an invalidation is stored as stale.
type QueryCache struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	gens     map[string]uint64
	inflight map[string]invalidation.Key
	stats    Stats
	now      func() time.Time
	// loadTimeout bounds a shared load once it no longer follows the
	// context of the caller that started it.
	loadTimeout time.Duration

	group singleflight.Group
}

type cacheItem struct {
	key       invalidation.Key
	data      []byte
	gen       uint64
	stale     bool
	storedAt  time.Time
	expiresAt time.Time
}

// Entry is a copy of a cached result.
type Entry struct {
	Key      invalidation.Key
	Data     []byte
	Stale    bool
	StoredAt time.Time
}

// Stats counts cache traffic since creation.
type Stats struct {
	Hits          int64
	Misses        int64
	Loads         int64
	Invalidations int64
	Evictions     int64
	Size          int
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) {
		c.now = now
	}
}

// WithLoadTimeout bounds each load. The default is 30 seconds.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *QueryCache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

const defaultLoadTimeout = 30 * time.Second

// NewQueryCache creates a cache holding at most maxSize entries for ttl.
func NewQueryCache(maxSize int, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		maxSize:  maxSize,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		gens:     make(map[string]uint64),
		inflight: make(map[string]invalidation.Key),
		now:      time.Now,

		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached entry for key, stale or not. Expired entries are
// removed and reported missing.
func (c *QueryCache) Get(key invalidation.Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key.String()]
	if !ok {
		return Entry{}, false
	}
	item := elem.Value.(*cacheItem)
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return Entry{}, false
	}
	c.lru.MoveToFront(elem)
	return item.entry(), true
}

// Set stores data as a fresh entry for key.
func (c *QueryCache) Set(key invalidation.Key, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := key.String()
	c.storeLocked(key, data, c.gens[s], c.now())
}

// Delete removes a key from the cache
func (c *QueryCache) Delete(key invalidation.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key.String()]; ok {
		c.removeElement(elem)
	}
}

// Invalidate marks every entry matched by one of keys stale and fences
// loads in flight for those entries. It returns the number of cached
// entries marked.
func (c *QueryCache) Invalidate(keys ...invalidation.Key) int {
	if len(keys) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	marked := 0
	for s, elem := range c.items {
		item := elem.Value.(*cacheItem)
		if !invalidation.MatchesAny(keys, item.key) {
			continue
		}
		c.gens[s]++
		if !item.stale {
			item.stale = true
			marked++
		}
	}
	for s, k := range c.inflight {
		if _, cached := c.items[s]; cached {
			continue
		}
		if invalidation.MatchesAny(keys, k) {
			c.gens[s]++
		}
	}
	c.stats.Invalidations += int64(marked)

	slog.Debug("Cache invalidated", "keys", invalidation.Strings(keys), "marked", marked)
	return marked
}

// InvalidateAll marks every entry stale.
func (c *QueryCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	marked := 0
	for s, elem := range c.items {
		c.gens[s]++
		item := elem.Value.(*cacheItem)
		if !item.stale {
			item.stale = true
			marked++
		}
	}
	for s := range c.inflight {
		c.gens[s]++
	}
	c.stats.Invalidations += int64(marked)
	return marked
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *QueryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a copy of the counters.
func (c *QueryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.items)
	return s
}

// Entries returns every unexpired entry, most recently used first.
func (c *QueryCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]Entry, 0, len(c.items))
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem)
		if now.After(item.expiresAt) {
			continue
		}
		out = append(out, item.entry())
	}
	return out
}

// Restore loads entries kept from an earlier session. Entries older than
// the TTL are skipped and the stale flag is kept. It returns the number
// restored.
func (c *QueryCache) Restore(entries []Entry) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	restored := 0
	// Oldest use first so the most recent ends up at the front.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if now.After(e.StoredAt.Add(c.ttl)) {
			continue
		}
		s := e.Key.String()
		c.storeLocked(e.Key, e.Data, c.gens[s], e.StoredAt)
		if e.Stale {
			c.items[s].Value.(*cacheItem).stale = true
		}
		restored++
	}
	return restored
}

// begin records an in-flight load of key and returns its generation.
func (c *QueryCache) begin(key invalidation.Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := key.String()
	c.inflight[s] = key
	c.stats.Loads++
	return c.gens[s]
}

// finish ends a load. With data it stores the result, marking it stale if
// the key was invalidated since begin.
func (c *QueryCache) finish(key invalidation.Key, gen uint64, data []byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := key.String()
	delete(c.inflight, s)
	if !ok {
		return
	}
	c.storeLocked(key, data, gen, c.now())
	if c.gens[s] != gen {
		c.items[s].Value.(*cacheItem).stale = true
		slog.Debug("Cache load fenced by invalidation", "key", s)
	}
}

func (c *QueryCache) storeLocked(key invalidation.Key, data []byte, gen uint64, storedAt time.Time) {
	s := key.String()
	item := &cacheItem{
		key:       key,
		data:      append([]byte(nil), data...),
		gen:       gen,
		storedAt:  storedAt,
		expiresAt: storedAt.Add(c.ttl),
	}

	if elem, ok := c.items[s]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[s] = elem

	if c.maxSize > 0 && c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.Evictions++
		}
	}
}

func (c *QueryCache) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem)
	s := item.key.String()
	delete(c.items, s)
	if _, loading := c.inflight[s]; !loading {
		delete(c.gens, s)
	}
	c.lru.Remove(elem)
}

func (i *cacheItem) entry() Entry {
	return Entry{
		Key:      i.key,
		Data:     append([]byte(nil), i.data...),
		Stale:    i.stale,
		StoredAt: i.storedAt,
	}
}
