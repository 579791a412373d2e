package cache

import "github.com/gofountain/fountain/pkg/packet"

// NumCaches is the fixed ring length, per §3.
const NumCaches = 4

// DefaultCacheMultiplier is the default cache_size_multiplier (§3):
// each cache's capacity is this many times the section size.
const DefaultCacheMultiplier = 6

// Ring is the client's fixed-length ring of per-section caches.
type Ring struct {
	caches [NumCaches]*Cache
}

// NewRing allocates a ring of NumCaches empty caches, each sized
// multiplier*sectionSize.
func NewRing(sectionSize, multiplier int) *Ring {
	r := &Ring{}
	capacity := sectionSize * multiplier
	for i := range r.caches {
		r.caches[i] = NewCache(capacity)
	}
	return r
}

// Cache returns the i'th cache in ring order, head first.
func (r *Ring) Cache(i int) *Cache { return r.caches[i] }

// Head returns the ring's current head cache.
func (r *Ring) Head() *Cache { return r.caches[0] }

func (r *Ring) rotateHeadToTail() {
	stale := r.caches[0]
	copy(r.caches[:], r.caches[1:])
	r.caches[len(r.caches)-1] = stale
}

// PrepareHead implements the first step of get_packet(section_num, ...):
// if the head cache belongs to a different section, its contents are
// discarded and it is rotated to the tail, exposing the next cache as
// head; if that cache is unassigned it is bound to sectionNum. Returns
// the number of packets discarded from the stale head.
func (r *Ring) PrepareHead(sectionNum int) (discarded int) {
	head := r.caches[0]
	if head.Section() == sectionNum {
		return 0
	}
	discarded = head.Reset()
	r.rotateHeadToTail()
	head = r.caches[0]
	if head.Section() == Unassigned {
		head.Assign(sectionNum)
	}
	return discarded
}

// AssignForLoad implements get_packet's "head cache empty" branch: it
// assigns up to NumCaches consecutive sections starting at sectionNum
// (bounded by numSections) to caches that don't already carry an
// assignment, and returns the number of caches now staged to load.
func (r *Ring) AssignForLoad(sectionNum, numSections int) int {
	nToReq := NumCaches
	if remaining := numSections - sectionNum; remaining < nToReq {
		nToReq = remaining
	}
	if nToReq < 0 {
		nToReq = 0
	}
	for i := 0; i < nToReq; i++ {
		c := r.caches[i]
		if c.Section() == Unassigned {
			c.Assign(sectionNum + i)
		}
	}
	return nToReq
}

// HeadEmpty reports whether the head cache has nothing left to consume.
func (r *Ring) HeadEmpty() bool { return r.caches[0].Empty() }

// PopHead consumes and returns the head cache's next packet.
func (r *Ring) PopHead() (*packet.Packet, bool) {
	return r.caches[0].Pop()
}

// FindBySection returns the index of the cache assigned to section, or
// -1 if no cache in the ring currently owns it.
func (r *Ring) FindBySection(section int) int {
	for i, c := range r.caches {
		if c.Section() == section {
			return i
		}
	}
	return -1
}
