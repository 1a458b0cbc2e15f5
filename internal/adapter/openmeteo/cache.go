package openmeteo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wind-period-service/internal/domain"
	"github.com/couchcryptid/wind-period-service/internal/observability"
)

// Source is the reading source contract shared by the client and its decorators.
type Source interface {
	FetchReadings(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.Reading, error)
}

type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

func checkInner(ctx context.Context, inner Source) error {
	if rc, ok := inner.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// CachedSource wraps a Source with an in-memory LRU cache whose entries
// expire after a fixed TTL.
type CachedSource struct {
	inner   Source
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a reading source.
func NewCachedSource(inner Source, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

// FetchReadings serves a cached result for the same coordinates and range
// until it expires, otherwise forwards to the wrapped source.
func (c *CachedSource) FetchReadings(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.Reading, error) {
	key := fmt.Sprintf("%.4f,%.4f|%d|%d", lat, lon, start.Unix(), end.Unix())
	if readings, ok := c.cache.get(key, c.clock.Now()); ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return readings, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	readings, err := c.inner.FetchReadings(ctx, lat, lon, start, end)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so a provider gap can be retried.
	if len(readings) > 0 {
		c.cache.put(key, readings, c.clock.Now().Add(c.ttl))
	}
	return readings, nil
}

// CheckReadiness delegates to the wrapped source.
func (c *CachedSource) CheckReadiness(ctx context.Context) error {
	return checkInner(ctx, c.inner)
}

// lruCache is a simple thread-safe LRU cache of reading series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   []domain.Reading
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// get returns a copy of the cached series, dropping it if it expired before now.
func (c *lruCache) get(key string, now time.Time) ([]domain.Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return nil, false
	}
	c.moveToFront(e)
	out := make([]domain.Reading, len(e.value))
	copy(out, e.value)
	return out, true
}

func (c *lruCache) put(key string, value []domain.Reading, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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
