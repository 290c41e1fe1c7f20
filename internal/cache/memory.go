// Package cache provides an in-memory LRU cache for synthesized audio.
// Chat traffic repeats heavily (memes, announcements), so keeping recent
// renders avoids re-running the synthesis binaries.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory implements an in-memory cache with LRU eviction and a byte-size
// capacity limit.
type Memory struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	mu sync.Mutex

	stats Stats
}

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64
	Hits      int64
	Misses    int64
	Evictions int64
	LastEvict time.Time
}

type entry struct {
	key   string
	value []byte
	size  int64
}

// NewMemory creates a memory cache with the given capacity in bytes.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

// Get retrieves a value from the cache.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	// Move to front (most recently used).
	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*entry).value, true
}

// Put stores a value, evicting least recently used entries to make room.
// Values larger than the total capacity are silently skipped.
func (c *Memory) Put(key string, value []byte) {
	size := int64(len(value))
	if size > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*entry)
		c.size += size - old.size
		old.value = value
		old.size = size
		c.eviction.MoveToFront(elem)
	} else {
		c.items[key] = c.eviction.PushFront(&entry{key: key, value: value, size: size})
		c.size += size
	}

	for c.size > c.capacity {
		c.evictOldest()
	}
	c.stats.Size = c.size
	c.stats.ItemCount = int64(len(c.items))
}

// Delete removes an entry if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	c.stats.Size = c.size
	c.stats.ItemCount = int64(len(c.items))
}

// Clear removes all entries.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
	c.stats.Size = 0
	c.stats.ItemCount = 0
}

// Size returns the current cache size in bytes.
func (c *Memory) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// GetStats returns a copy of the cache statistics.
func (c *Memory) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Memory) evictOldest() {
	elem := c.eviction.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem)
	c.stats.Evictions++
	c.stats.LastEvict = time.Now()
}

func (c *Memory) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.eviction.Remove(elem)
	c.size -= e.size
}
