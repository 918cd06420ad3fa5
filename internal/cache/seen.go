// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package cache provides the seen-signal cache used by the event processor
// to deduplicate repeated observations of the same media signal.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type seenEntry struct {
	key       string
	seenAt    time.Time
	expiresAt time.Time
}

// SeenCache is a thread-safe LRU set with TTL. The processor records each
// resolved signal key here; a re-observation inside the TTL is a duplicate
// and only refreshes the catalog's last-observed timestamp once per window.
//
// All operations are O(1). Expiry is lazy; CleanupExpired exists for
// explicit housekeeping sweeps.
type SeenCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List               // front = most recently seen
	items    map[string]*list.Element // key -> element holding *seenEntry
}

// NewSeenCache creates a cache with the given capacity and TTL. Zero or
// negative arguments fall back to 10000 entries and 5 minutes.
func NewSeenCache(capacity int, ttl time.Duration) *SeenCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SeenCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// IsDuplicate reports whether key was seen within the TTL. A fresh key is
// recorded as seen as a side effect, so the first caller gets false and
// every caller inside the window after it gets true.
func (c *SeenCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*seenEntry)
		if now.Before(entry.expiresAt) {
			c.order.MoveToFront(el)
			return true
		}
		c.remove(el)
	}

	c.insert(key, now)
	return false
}

// Contains reports whether key is present and unexpired, without recording
// it or touching recency.
func (c *SeenCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	return time.Now().Before(el.Value.(*seenEntry).expiresAt)
}

// Mark records key as seen now, refreshing TTL and recency if present.
func (c *SeenCache) Mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*seenEntry)
		entry.seenAt = now
		entry.expiresAt = now.Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}
	c.insert(key, now)
}

// Forget removes key. Returns true if it was present.
func (c *SeenCache) Forget(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
		return true
	}
	return false
}

// Len returns the current number of entries, expired ones included.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired removes all expired entries and returns how many were
// dropped.
func (c *SeenCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*seenEntry).expiresAt) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// insert adds a fresh entry, evicting the least recently seen entry when
// over capacity. Must be called with the lock held.
func (c *SeenCache) insert(key string, now time.Time) {
	el := c.order.PushFront(&seenEntry{
		key:       key,
		seenAt:    now,
		expiresAt: now.Add(c.ttl),
	})
	c.items[key] = el

	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}
}

// remove drops an element from both the list and the index. Must be called
// with the lock held.
func (c *SeenCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*seenEntry).key)
}
