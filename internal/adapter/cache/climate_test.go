package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/observability"
)

// --- mock for cache tests ---

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (m *countingLoader) Climate(_ context.Context, stationID string, _ float64) (*domain.Climate, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Climate{StationID: stationID}, nil
}

// --- CachedClimate tests ---

func TestCachedClimate_CacheHit(t *testing.T) {
	inner := &countingLoader{}
	cached := NewCachedClimate(inner, 10, observability.NewMetricsForTesting())

	c1, err := cached.Climate(context.Background(), "S1", 0)
	require.NoError(t, err)
	c2, err := cached.Climate(context.Background(), "S1", 0)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), inner.calls.Load(), "should only call inner once")
	assert.Equal(t, 1, cached.Len())

	_, err = cached.Climate(context.Background(), "S1", 50)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load(), "aridity is part of the key")
}

func TestCachedClimate_ErrorsAreNotCached(t *testing.T) {
	inner := &countingLoader{err: errors.New("no such file")}
	cached := NewCachedClimate(inner, 10, nil)

	_, err := cached.Climate(context.Background(), "S1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station S1")

	inner.err = nil
	c, err := cached.Climate(context.Background(), "S1", 0)
	require.NoError(t, err)
	assert.Equal(t, "S1", c.StationID)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedClimate_ConcurrentReaders(t *testing.T) {
	inner := &countingLoader{}
	cached := NewCachedClimate(inner, 4, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"S1", "S2"}[i%2]
			c, err := cached.Climate(context.Background(), id, 0)
			assert.NoError(t, err)
			assert.Equal(t, id, c.StationID)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.calls.Load(), int32(32))
	assert.Equal(t, 2, cached.Len())
}

// --- day-budget LRU unit tests ---

// climateFor returns a series of the given number of days.
func climateFor(id string, days int) *domain.Climate {
	c := &domain.Climate{StationID: id}
	start := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range days {
		c.Dates = append(c.Dates, start.AddDate(0, 0, i))
	}
	return c
}

func TestDayLRU_BasicGetPut(t *testing.T) {
	c := newDayLRU(100)

	c.put("a", climateFor("A", 10))
	c.put("b", climateFor("B", 20))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.StationID)

	_, ok = c.get("missing")
	assert.False(t, ok)

	entries, days := c.stats()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 30, days)
}

func TestDayLRU_EvictsByDays(t *testing.T) {
	c := newDayLRU(100)

	assert.Zero(t, c.put("a", climateFor("A", 40)))
	assert.Zero(t, c.put("b", climateFor("B", 40)))
	assert.Equal(t, 2, c.put("c", climateFor("C", 90)), "a and b must go to fit c")

	_, ok := c.get("a")
	assert.False(t, ok)
	_, ok = c.get("b")
	assert.False(t, ok)

	entries, days := c.stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 90, days)
}

func TestDayLRU_AccessPromotesEntry(t *testing.T) {
	c := newDayLRU(100)

	c.put("a", climateFor("A", 40))
	c.put("b", climateFor("B", 40))
	c.get("a")
	c.put("c", climateFor("C", 40))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestDayLRU_ReplaceAdjustsDays(t *testing.T) {
	c := newDayLRU(100)

	c.put("a", climateFor("A", 40))
	c.put("a", climateFor("A", 10))

	entries, days := c.stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 10, days)
}

func TestDayLRU_KeepsOversizedNewestEntry(t *testing.T) {
	c := newDayLRU(0)
	c.put("a", climateFor("A", 365))

	_, ok := c.get("a")
	assert.True(t, ok)
}

func TestCachedClimate_DayBudget(t *testing.T) {
	inner := loaderFunc(func(_ context.Context, id string, _ float64) (*domain.Climate, error) {
		return climateFor(id, 365), nil
	})
	cached := NewCachedClimate(inner, 2*365, observability.NewMetricsForTesting())

	for _, id := range []string{"S1", "S2", "S3"} {
		_, err := cached.Climate(context.Background(), id, 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cached.Len())
	assert.Equal(t, 2*365, cached.Days())

	_, ok := cached.cache.get("S1|0")
	assert.False(t, ok, "least recently loaded series is evicted")
}

type loaderFunc func(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error)

func (f loaderFunc) Climate(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error) {
	return f(ctx, stationID, aridity)
}
