// Package snapcache bounds an in-memory set of dominance snapshots keyed by
// chain block. The lock only guards the map; recomputation always happens
// outside it, so two concurrent callers may both rebuild an uncached block.
// Builds are deterministic, so the duplication is accepted.
package snapcache

import (
	"sync"

	"github.com/subnet-watch/frontier/internal/dominance"
)

// DefaultMaxEntries is how many distinct blocks are retained by default.
const DefaultMaxEntries = 10

// Cache is the snapshot store abstraction. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(block int64) (*dominance.Snapshot, bool)
	Insert(block int64, snap *dominance.Snapshot)
	Evict(block int64)
	Len() int
}

// BlockCache is a bounded map keyed by block number. When the bound is
// exceeded it evicts the numerically smallest key, oldest by block height
// rather than least-recently-used.
type BlockCache struct {
	mu         sync.Mutex
	entries    map[int64]*dominance.Snapshot
	maxEntries int
}

// New creates a BlockCache retaining at most maxEntries blocks. A
// non-positive bound falls back to DefaultMaxEntries.
func New(maxEntries int) *BlockCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &BlockCache{
		entries:    make(map[int64]*dominance.Snapshot),
		maxEntries: maxEntries,
	}
}

func (c *BlockCache) Get(block int64) (*dominance.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[block]
	return snap, ok
}

func (c *BlockCache) Insert(block int64, snap *dominance.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[block] = snap
	for len(c.entries) > c.maxEntries {
		delete(c.entries, c.smallestKeyLocked())
	}
}

func (c *BlockCache) Evict(block int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, block)
}

func (c *BlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *BlockCache) smallestKeyLocked() int64 {
	first := true
	var smallest int64
	for k := range c.entries {
		if first || k < smallest {
			smallest = k
			first = false
		}
	}
	return smallest
}
