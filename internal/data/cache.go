package data

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultResultTTL bounds how long a stored calibration can be fetched again.
const DefaultResultTTL = time.Hour

type storeEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// ResultStore keeps calibration results in memory under generated run IDs so
// the API can serve a run's ledger after the calibrate call returns.
// A nil store is valid and stores nothing.
type ResultStore[T any] struct {
	mu    sync.RWMutex
	store map[string]storeEntry[T]
	ttl   time.Duration
	now   func() time.Time
}

func NewResultStore[T any](ttl time.Duration) *ResultStore[T] {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore[T]{
		store: make(map[string]storeEntry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores value under a fresh run ID and returns it.
func (c *ResultStore[T]) Put(value T) string {
	if c == nil {
		return ""
	}
	id := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[id] = storeEntry[T]{value: value, expiresAt: c.now().Add(c.ttl)}
	return id
}

// Get retrieves a stored value if present and not expired.
func (c *ResultStore[T]) Get(id string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.store[id]
	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	return entry.value, true
}

func (c *ResultStore[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Sweep removes expired entries and reports how many were dropped.
func (c *ResultStore[T]) Sweep() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, id)
			n++
		}
	}
	return n
}

// RunCleanup sweeps periodically until stop is closed.
func (c *ResultStore[T]) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-stop:
			return
		}
	}
}
