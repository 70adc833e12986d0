// Package invoicecache holds full payment-request strings keyed by payment
// hash so the "copy invoice" button can echo them back. UI convenience only;
// entries expire and the cache is capped, losing one just means the buyer
// regenerates the payment.
package invoicecache

import (
	"sync"
	"time"
)

const (
	// DefaultTTL matches the order expiry window.
	DefaultTTL = time.Hour
	// DefaultCapacity bounds memory; oldest entries are evicted first.
	DefaultCapacity = 256
)

type entry struct {
	paymentRequest string
	storedAt       time.Time
}

// Cache is a bounded, expiring map of payment hash → payment request.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]entry
	order    []string // insertion order for capacity eviction
	now      func() time.Time
}

// New creates a Cache; non-positive ttl or capacity select the defaults.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry),
		now:      time.Now,
	}
}

// Put stores paymentRequest under paymentHash, evicting expired entries and,
// if still over capacity, the oldest entry.
func (c *Cache) Put(paymentHash, paymentRequest string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpired()
	if _, exists := c.entries[paymentHash]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, paymentHash)
	}
	c.entries[paymentHash] = entry{paymentRequest: paymentRequest, storedAt: c.now()}
}

// Get returns the cached payment request, or "" when absent or expired.
func (c *Cache) Get(paymentHash string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[paymentHash]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(paymentHash)
		return "", false
	}
	return e.paymentRequest, true
}

// Delete drops an entry, typically once its invoice is paid.
func (c *Cache) Delete(paymentHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(paymentHash)
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	for hash, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			c.remove(hash)
		}
	}
}

func (c *Cache) remove(paymentHash string) {
	if _, ok := c.entries[paymentHash]; !ok {
		return
	}
	delete(c.entries, paymentHash)
	for i, h := range c.order {
		if h == paymentHash {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
