package era5

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/domain"
)

// HistoryProvider is the series-fetching contract the cache decorates.
type HistoryProvider interface {
	RecentDaily(ctx context.Context, days int) ([]domain.HistoricalDay, error)
}

// CachedProvider wraps a HistoryProvider with a small in-memory LRU cache
// keyed by requested window. The archive series for a given window is
// immutable, and the pipeline re-requests the same window every refresh cycle
// within a day, so caching spares the archive API two dozen identical calls.
type CachedProvider struct {
	inner HistoryProvider
	clock clockwork.Clock
	cache *lruCache
}

// NewCachedProvider creates a cache decorator around a history provider.
func NewCachedProvider(inner HistoryProvider, maxEntries int, clock clockwork.Clock) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		clock: clock,
		cache: newLRUCache(maxEntries),
	}
}

// RecentDaily serves the series from cache when the same window was already
// fetched today. Errors are never cached so transient archive failures can be
// retried next cycle.
func (c *CachedProvider) RecentDaily(ctx context.Context, days int) ([]domain.HistoricalDay, error) {
	key := fmt.Sprintf("%s|%d", c.clock.Now().UTC().Format("2006-01-02"), days)
	if series, ok := c.cache.get(key); ok {
		return series, nil
	}
	series, err := c.inner.RecentDaily(ctx, days)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, series)
	return series, nil
}

// lruCache is a simple thread-safe LRU cache for historical series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.HistoricalDay
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.HistoricalDay, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.HistoricalDay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
