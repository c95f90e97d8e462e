// Package cache keeps normalized station climate in memory so cells sharing a
// station and aridity rating normalize it once.
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/observability"
)

// ClimateLoader loads the climate series of one station normalized for a cell
// aridity rating.
type ClimateLoader interface {
	Climate(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error)
}

// CachedClimate wraps a ClimateLoader with an LRU cache bounded by the total
// number of days held. Concurrent misses for the same station share one load.
type CachedClimate struct {
	inner   ClimateLoader
	cache   *dayLRU
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedClimate creates a cache decorator around a loader holding at most
// maxDays days of normalized climate.
func NewCachedClimate(inner ClimateLoader, maxDays int, metrics *observability.Metrics) *CachedClimate {
	return &CachedClimate{
		inner:   inner,
		cache:   newDayLRU(maxDays),
		metrics: metrics,
	}
}

// Climate returns the cached series for the station and aridity, loading it on a
// miss.
func (c *CachedClimate) Climate(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error) {
	key := fmt.Sprintf("%s|%g", stationID, aridity)
	if v, ok := c.cache.get(key); ok {
		c.observe("hit")
		return v, nil
	}
	c.observe("miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.cache.get(key); ok {
			return v, nil
		}
		v, err := c.inner.Climate(ctx, stationID, aridity)
		if err != nil {
			return nil, err
		}
		// Failed loads are not cached so a later pair can retry.
		for range c.cache.put(key, v) {
			c.observe("evict")
		}
		c.record()
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load climate for station %s: %w", stationID, err)
	}
	return v.(*domain.Climate), nil
}

// Len returns the number of cached series.
func (c *CachedClimate) Len() int {
	n, _ := c.cache.stats()
	return n
}

// Days returns the number of climate days currently cached.
func (c *CachedClimate) Days() int {
	_, days := c.cache.stats()
	return days
}

func (c *CachedClimate) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.ClimateCache.WithLabelValues(result).Inc()
}

func (c *CachedClimate) record() {
	if c.metrics == nil {
		return
	}
	c.metrics.ClimateCacheDays.Set(float64(c.Days()))
}
