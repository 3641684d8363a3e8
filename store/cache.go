// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is an in-memory map whose entries expire a fixed ttl after they were
// set. Expired entries are never returned: expiry is checked on every read and
// expired entries are also purged by a background sweep.
//
// See Cache.Done() which must be called to stop the background sweep.
type Cache[V any] struct {
	ttl    time.Duration
	now    func() time.Time
	logger hclog.Logger

	mu    sync.Mutex
	items map[string]entry[V]

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// NewCache creates a Cache.
//
// Supported options:
//   - WithNow
//   - WithSweepInterval
//   - WithLogger
func NewCache[V any](ttl time.Duration, opt ...Option) (*Cache[V], error) {
	const op = "store.NewCache"
	if ttl <= 0 {
		return nil, fmt.Errorf("%s: ttl must be positive: %w", op, ErrInvalidParameter)
	}
	opts := getOpts(opt...)
	c := &Cache[V]{
		ttl:    ttl,
		now:    opts.withNow,
		logger: opts.withLogger,
		items:  map[string]entry[V]{},
	}
	if opts.withSweepInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.sweepCancel = cancel
		c.sweepDone = make(chan struct{})
		go c.sweep(ctx, opts.withSweepInterval)
	}
	return c, nil
}

// TTL returns the lifetime of every entry.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Set stores v under key and returns the time the entry was created.
func (c *Cache[V]) Set(key string, v V) time.Time {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: v, createdAt: now}
	return now
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Take removes and returns the live value for key. Of any number of
// concurrent callers taking the same key, at most one succeeds.
func (c *Cache[V]) Take(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, createdAt, ok := c.get(key)
	if ok {
		delete(c.items, key)
	}
	return v, createdAt, ok
}

// get must be called with c.mu held.
func (c *Cache[V]) get(key string) (V, time.Time, bool) {
	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, time.Time{}, false
	}
	if c.expired(e, c.now()) {
		delete(c.items, key)
		return zero, time.Time{}, false
	}
	return e.value, e.createdAt, true
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return !now.Before(e.createdAt.Add(c.ttl))
}

// Len returns the number of stored entries, including expired ones which
// have not been purged yet.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge removes every expired entry and returns how many were removed.
func (c *Cache[V]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed int
	for k, e := range c.items {
		if c.expired(e, now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) sweep(ctx context.Context, interval time.Duration) {
	defer close(c.sweepDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Purge(); n > 0 {
				c.logger.Trace("purged expired entries", "count", n)
			}
		}
	}
}

// Done stops the background sweep and waits for it to exit. It is safe to
// call more than once.
func (c *Cache[V]) Done() {
	if c == nil {
		return
	}
	c.mu.Lock()
	cancel, done := c.sweepCancel, c.sweepDone
	c.sweepCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
