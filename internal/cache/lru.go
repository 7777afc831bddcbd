package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/joingo/docset"
	"github.com/hupe1980/joingo/resource"
)

// Key identifies a cached doc set. Producers namespace their keys
// ("q:..." for queries, "t:field:term" for term sets).
type Key string

// DocSetCache is an LRU cache of doc sets. A nil DocSetCache is valid and
// caches nothing.
type DocSetCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List
	rc        *resource.Controller

	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key  Key
	set  docset.DocSet
	cost int64
}

// New creates a DocSetCache with the given capacity in bytes.
// If rc is provided, it will be used to track memory usage.
func New(capacity int64, rc *resource.Controller) *DocSetCache {
	return &DocSetCache{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// GetOrCompute returns the cached set for key, computing it at most once
// across concurrent callers. The computed set is admitted when its cost
// fits the capacity and the resource controller grants the memory;
// otherwise it is returned uncached.
//
// The second result reports whether the call was served from cache.
func (c *DocSetCache) GetOrCompute(key Key, cost func(docset.DocSet) int64, compute func() (docset.DocSet, error)) (docset.DocSet, bool, error) {
	if c == nil {
		set, err := compute()
		return set, false, err
	}

	if set, ok := c.get(key); ok {
		c.hits.Add(1)
		return set, true, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(string(key), func() (any, error) {
		// Another caller may have populated the key while we queued.
		if set, ok := c.get(key); ok {
			return set, nil
		}
		set, err := compute()
		if err != nil {
			return nil, err
		}
		c.add(key, set, cost(set))
		return set, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(docset.DocSet), false, nil
}

// Stats returns cumulative hit and miss counts.
func (c *DocSetCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *DocSetCache) get(key Key) (docset.DocSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).set, true
	}
	return nil, false
}

func (c *DocSetCache) add(key Key, set docset.DocSet, cost int64) {
	if cost > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		return
	}

	// Evict locally first so memory returns to the controller before we
	// ask it for more.
	for c.size+cost > c.capacity {
		if !c.evictOldestLocked() {
			break
		}
	}

	if !c.rc.TryAcquireMemory(cost) {
		return
	}

	ent := &entry{key: key, set: set, cost: cost}
	c.items[key] = c.evictList.PushFront(ent)
	c.size += cost
}

func (c *DocSetCache) evictOldestLocked() bool {
	el := c.evictList.Back()
	if el == nil {
		return false
	}
	ent := el.Value.(*entry)
	c.evictList.Remove(el)
	delete(c.items, ent.key)
	c.size -= ent.cost
	c.rc.ReleaseMemory(ent.cost)
	return true
}
