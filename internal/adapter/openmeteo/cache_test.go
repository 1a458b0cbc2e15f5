package openmeteo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-period-service/internal/domain"
	"github.com/couchcryptid/wind-period-service/internal/observability"
)

// --- mock for decorator tests ---

type countingSource struct {
	calls    int
	readings []domain.Reading
	err      error
	ready    error
}

func (m *countingSource) FetchReadings(_ context.Context, _, _ float64, _, _ time.Time) ([]domain.Reading, error) {
	m.calls++
	return m.readings, m.err
}

func (m *countingSource) CheckReadiness(context.Context) error { return m.ready }

func series(n int) []domain.Reading {
	out := make([]domain.Reading, n)
	for i := range out {
		out[i] = domain.Reading{Time: day(1).Add(time.Duration(i) * time.Hour), SpeedRef: float64(i)}
	}
	return out
}

// --- CachedSource tests ---

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{readings: series(3)}
	m := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClockAt(testNow), m)

	r1, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(2))
	require.NoError(t, err)
	r2, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(2))
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceCache.WithLabelValues("miss")))
}

func TestCachedSource_ReturnsCopies(t *testing.T) {
	inner := &countingSource{readings: series(2)}
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	_, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	require.NoError(t, err)
	r, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	require.NoError(t, err)
	r[0].SpeedRef = 999

	again, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	require.NoError(t, err)
	assert.Zero(t, again[0].SpeedRef)
}

func TestCachedSource_DifferentKeysMiss(t *testing.T) {
	inner := &countingSource{readings: series(1)}
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	_, _ = cached.FetchReadings(context.Background(), -42, 174, day(1), day(1))
	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(2))

	assert.Equal(t, 3, inner.calls)
}

func TestCachedSource_Expiry(t *testing.T) {
	inner := &countingSource{readings: series(1)}
	clock := clockwork.NewFakeClockAt(testNow)
	cached := NewCachedSource(inner, 10, time.Minute, clock, observability.NewMetricsForTesting())

	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	clock.Advance(59 * time.Second)
	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Second)
	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_EmptyAndErrorsNotCached(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	_, _ = cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("boom")
	inner.readings = series(1)
	_, err := cached.FetchReadings(context.Background(), -41, 174, day(1), day(1))
	require.Error(t, err)
	assert.Zero(t, cached.cache.size())
}

func TestCachedSource_CheckReadinessDelegates(t *testing.T) {
	inner := &countingSource{ready: ErrCircuitOpen}
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())
	assert.ErrorIs(t, cached.CheckReadiness(context.Background()), ErrCircuitOpen)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	exp := testNow.Add(time.Hour)

	c.put("a", series(1), exp)
	c.put("b", series(2), exp)

	result, ok := c.get("a", testNow)
	assert.True(t, ok)
	assert.Len(t, result, 1)

	_, ok = c.get("missing", testNow)
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	exp := testNow.Add(time.Hour)

	c.put("a", series(1), exp)
	c.put("b", series(2), exp)
	c.put("c", series(3), exp) // evicts "a"

	_, ok := c.get("a", testNow)
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b", testNow)
	assert.True(t, ok)
	assert.Len(t, result, 2)

	result, ok = c.get("c", testNow)
	assert.True(t, ok)
	assert.Len(t, result, 3)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	exp := testNow.Add(time.Hour)

	c.put("a", series(1), exp)
	c.put("b", series(2), exp)

	// Access "a" to promote it
	c.get("a", testNow)

	// Insert "c", which should evict "b" (LRU), not "a"
	c.put("c", series(3), exp)

	_, ok := c.get("a", testNow)
	assert.True(t, ok, "a should still be cached")
	_, ok = c.get("b", testNow)
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", series(1), testNow.Add(time.Minute))
	c.put("a", series(4), testNow.Add(time.Hour))

	result, ok := c.get("a", testNow.Add(30*time.Minute))
	assert.True(t, ok)
	assert.Len(t, result, 4)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_ExpiredEntryRemoved(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", series(1), testNow)

	_, ok := c.get("a", testNow)
	assert.False(t, ok)
	assert.Zero(t, c.size())
}
