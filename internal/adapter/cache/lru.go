package cache

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// dayLRU holds normalized climate series under a budget counted in days, so a
// 40-year station costs forty times a 1-year one. The most recent entry is kept
// even when it alone exceeds the budget.
type dayLRU struct {
	maxDays int

	mu      sync.Mutex
	days    int
	order   *list.List // front is most recently used
	entries map[string]*list.Element
}

type series struct {
	key     string
	climate *domain.Climate
	days    int
}

func newDayLRU(maxDays int) *dayLRU {
	return &dayLRU{
		maxDays: max(maxDays, 1),
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func cost(c *domain.Climate) int { return max(c.Len(), 1) }

func (c *dayLRU) get(key string) (*domain.Climate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*series).climate, true
}

// put stores v under key and returns how many series were evicted to fit it.
func (c *dayLRU) put(key string, v *domain.Climate) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		s := el.Value.(*series)
		c.days += cost(v) - s.days
		s.climate, s.days = v, cost(v)
		c.order.MoveToFront(el)
	} else {
		s := &series{key: key, climate: v, days: cost(v)}
		c.entries[key] = c.order.PushFront(s)
		c.days += s.days
	}

	evicted := 0
	for c.days > c.maxDays && c.order.Len() > 1 {
		s := c.order.Remove(c.order.Back()).(*series)
		delete(c.entries, s.key)
		c.days -= s.days
		evicted++
	}
	return evicted
}

// stats returns the number of cached series and the days they hold.
func (c *dayLRU) stats() (entries, days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), c.days
}
