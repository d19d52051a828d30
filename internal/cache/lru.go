// internal/cache/lru.go
//
// Small LRU used by the view engine to hold parsed *template.Template sets,
// keyed by the logical template name.  No external deps.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a least-recently-used cache with string keys.  Safe for concurrent
// use; even Get mutates recency order, so every method takes the lock.
type LRU struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[string]*list.Element
}

type entry struct {
	key string
	val any
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New(capacity int) *LRU {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a value and marks it most-recently-used.
func (c *LRU) Get(key string) (val any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(entry).val, true
	}
	return nil, false
}

// Add inserts or updates a value, evicting the LRU entry when over capacity.
func (c *LRU) Add(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		ele.Value = entry{key, val}
		c.ll.MoveToFront(ele)
		return
	}
	c.dict[key] = c.ll.PushFront(entry{key, val})
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(entry).key)
	}
}

// Purge drops every entry.  Used when templates are re-parsed on reload.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.dict = make(map[string]*list.Element, c.cap)
}

// Len reports current size.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
