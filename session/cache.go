// Package session holds the fixed-capacity, slot-indexed view of connected
// players' membership snapshots. It is the only structure shared between the
// connection lifecycle, admin mutations, and hot read paths, so every slot
// carries its own lock and a generation counter that fences stale async loads.
package session

import (
	"sync"

	"github.com/open-rails/vipkit/membership"
)

// Cache maps connection slots to membership snapshots. Peek never blocks on
// I/O; snapshots are copied in and out, never shared by pointer.
type Cache struct {
	slots []slot
}

type slot struct {
	mu  sync.Mutex
	gen uint64
	rec membership.Record
	has bool
}

// NewCache builds a cache with one entry per connection slot.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 64
	}
	return &Cache{slots: make([]slot, capacity)}
}

// Capacity reports the number of slots.
func (c *Cache) Capacity() int { return len(c.slots) }

func (c *Cache) at(i int) *slot {
	if i < 0 || i >= len(c.slots) {
		return nil
	}
	return &c.slots[i]
}

// Connect marks the start of a new session on slot i: the entry is cleared
// and the generation advances. The returned generation must be presented to
// Commit by the async load for that session; a load carrying an older
// generation is discarded.
func (c *Cache) Connect(i int) (gen uint64, ok bool) {
	s := c.at(i)
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.rec = membership.Record{}
	s.has = false
	return s.gen, true
}

// Commit stores a snapshot on slot i if the session generation is still gen.
// Returns false when the slot was reused or evicted since Connect.
func (c *Cache) Commit(i int, gen uint64, rec membership.Record) bool {
	s := c.at(i)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.rec = rec
	s.has = true
	return true
}

// Evict clears slot i unconditionally and advances the generation so any
// in-flight load for the departed session is discarded.
func (c *Cache) Evict(i int) {
	s := c.at(i)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.rec = membership.Record{}
	s.has = false
}

// Peek returns a copy of the snapshot on slot i, if any.
func (c *Cache) Peek(i int) (membership.Record, bool) {
	s := c.at(i)
	if s == nil {
		return membership.Record{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, s.has
}

// EvictIdentifier clears every slot currently holding a snapshot for
// identifier and returns how many were cleared. Used when a revoke should
// take effect for a player who is connected right now.
func (c *Cache) EvictIdentifier(identifier string) int {
	if identifier == "" {
		return 0
	}
	n := 0
	for i := range c.slots {
		s := &c.slots[i]
		s.mu.Lock()
		if s.has && s.rec.Identifier == identifier {
			s.gen++
			s.rec = membership.Record{}
			s.has = false
			n++
		}
		s.mu.Unlock()
	}
	return n
}
