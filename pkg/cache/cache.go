// Package cache implements the client's per-section packet cache and
// the fixed-length ring of NUM_CACHES caches described in §3's
// "Per-section cache" and driven by §4.8's get_packet/load_from_network
// contracts.
//
// The bounded-buffer shape is grounded on the teacher's internal/fifo
// circular buffer, generalised from a byte ring to a slice of
// *packet.Packet handles; unlike Fifo, a Cache is filled once per
// network round and drained by a read cursor rather than interleaving
// reads and writes, matching the bulk fill/drain rhythm of §4.8.
package cache

import "github.com/gofountain/fountain/pkg/packet"

// Unassigned is the section id of a cache that has not yet been bound
// to a section.
const Unassigned = -1

// Cache is a bounded FIFO of packets awaiting decode for one section.
type Cache struct {
	section  int
	capacity int
	packets  []*packet.Packet
	current  int
}

// NewCache creates an empty, unassigned cache able to hold capacity
// packets.
func NewCache(capacity int) *Cache {
	return &Cache{section: Unassigned, capacity: capacity}
}

// Section returns the cache's assigned section, or Unassigned.
func (c *Cache) Section() int { return c.section }

// Assign binds the cache to section. It does not clear any existing
// contents; callers must Reset first if reassigning a stale cache.
func (c *Cache) Assign(section int) { c.section = section }

// Capacity returns the cache's maximum packet count.
func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of unconsumed packets.
func (c *Cache) Len() int { return len(c.packets) - c.current }

// Remaining returns how many more packets the cache can accept before
// reaching capacity, the value a WAIT declares for this section.
func (c *Cache) Remaining() int {
	return c.capacity - len(c.packets)
}

// Empty reports whether every enqueued packet has been consumed.
func (c *Cache) Empty() bool { return c.current >= len(c.packets) }

// Enqueue appends p, returning false if the cache is already at
// capacity.
func (c *Cache) Enqueue(p *packet.Packet) bool {
	if len(c.packets) >= c.capacity {
		return false
	}
	c.packets = append(c.packets, p)
	return true
}

// Pop returns and consumes the oldest unconsumed packet.
func (c *Cache) Pop() (*packet.Packet, bool) {
	if c.Empty() {
		return nil, false
	}
	p := c.packets[c.current]
	c.packets[c.current] = nil
	c.current++
	return p, true
}

// Reset drops all contents and unassigns the cache, counting discarded
// packets for the caller's stats.
func (c *Cache) Reset() (discarded int) {
	discarded = c.Len()
	c.packets = c.packets[:0]
	c.current = 0
	c.section = Unassigned
	return discarded
}

// CompactAndRewind drops already-consumed entries and rewinds the read
// cursor to the base of the remaining ones, per §4.8 step 3 of
// load_from_network ("reset each cache's read cursor to its base").
func (c *Cache) CompactAndRewind() {
	if c.current == 0 {
		return
	}
	remaining := len(c.packets) - c.current
	copy(c.packets, c.packets[c.current:])
	c.packets = c.packets[:remaining]
	c.current = 0
}
