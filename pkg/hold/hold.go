// Package hold implements the packet hold: the per-section arena of
// received-but-not-yet-solved fountain packets described in §4.4, with
// deferred deletion and periodic compaction.
//
// The arena-with-free-bitmap shape is grounded on the teacher's
// internal/fifo circular buffer (wraparound index arithmetic kept simple
// by never shifting live elements eagerly) generalised from a byte ring to
// a slice of live/dead packet pointers, and on sdo_server.go's buffer
// bookkeeping style (explicit offset fields rather than slice
// append/trim).
package hold

import (
	"github.com/gofountain/fountain/internal/bitset"
	"github.com/gofountain/fountain/pkg/packet"
)

const growthNumerator, growthDenominator = 3, 2 // 1.5x growth, per §4.4

// Hold is a dynamic store of unsolved packets for one section.
//
// This implementation keeps num_packets and offset (§3's "Packet hold"
// fields) numerically identical at all times: both only ever move
// together on Add, and collect_garbage resets both to the live count in
// one step. remove() never touches either, matching §4.4's "does NOT
// compact". The two names are kept as separate accessors (NumPackets,
// Offset) purely to mirror the spec's vocabulary.
type Hold struct {
	slots   []*packet.Packet
	deleted *bitset.Set
	mark    *bitset.Set
	offset  int
}

// New creates an empty Hold with the given initial slot capacity.
func New(initialSlots int) *Hold {
	if initialSlots <= 0 {
		initialSlots = 1
	}
	return &Hold{
		slots:   make([]*packet.Packet, initialSlots),
		deleted: bitset.New(initialSlots),
		mark:    bitset.New(initialSlots),
	}
}

// NumSlots returns the current capacity.
func (h *Hold) NumSlots() int { return len(h.slots) }

// NumPackets returns the high-water index (see type doc).
func (h *Hold) NumPackets() int { return h.offset }

// Offset returns the logical append count (see type doc).
func (h *Hold) Offset() int { return h.offset }

// LiveCount returns the number of non-deleted entries in [0, offset).
func (h *Hold) LiveCount() int {
	count := 0
	for i := 0; i < h.offset; i++ {
		if !h.deleted.Test(i) {
			count++
		}
	}
	return count
}

// IsDeleted reports whether slot i has been removed.
func (h *Hold) IsDeleted(i int) bool { return h.deleted.Test(i) }

// IsMarked reports whether slot i is flagged for re-examination.
func (h *Hold) IsMarked(i int) bool { return h.mark.Test(i) }

// Mark flags slot i for re-examination (§4.5 Case B step 2).
func (h *Hold) Mark(i int) { h.mark.Set(i) }

// ClearMark unflags slot i.
func (h *Hold) ClearMark(i int) { h.mark.Clear(i) }

// At returns the packet stored at slot i. The caller must have checked
// IsDeleted(i) is false; callers iterate [0, NumPackets()) via At +
// IsDeleted, never index past NumPackets().
func (h *Hold) At(i int) *packet.Packet { return h.slots[i] }

// Add appends packet p, growing the arena 1.5x when full, and returns the
// slot index it was stored at. The hold takes ownership of p.
func (h *Hold) Add(p *packet.Packet) int {
	if h.offset == len(h.slots) {
		h.grow()
	}
	idx := h.offset
	h.slots[idx] = p
	h.offset++
	return idx
}

func (h *Hold) grow() {
	newCap := len(h.slots) * growthNumerator / growthDenominator
	if newCap <= len(h.slots) {
		newCap = len(h.slots) + 1
	}
	grown := make([]*packet.Packet, newCap)
	copy(grown, h.slots)
	h.slots = grown
	h.deleted.Grow(newCap)
	h.mark.Grow(newCap)
}

// Remove extracts the live packet at slot i, marking the slot deleted and
// clearing its mark bit. It does not compact; call CollectGarbage when
// appropriate. Returns (nil, false) if i is out of range or already
// deleted.
func (h *Hold) Remove(i int) (*packet.Packet, bool) {
	if i < 0 || i >= h.offset || h.deleted.Test(i) {
		return nil, false
	}
	p := h.slots[i]
	h.slots[i] = nil
	h.deleted.Set(i)
	h.mark.Clear(i)
	return p, true
}

// Contains reports whether an exact structural duplicate of p is already
// live in the hold (§4.4 contains, used before admission).
func (h *Hold) Contains(p *packet.Packet) bool {
	for i := 0; i < h.offset; i++ {
		if h.deleted.Test(i) {
			continue
		}
		if h.slots[i].Equal(p) {
			return true
		}
	}
	return false
}

// CollectGarbage compacts the arena when offset > 2*live, preserving the
// relative order of live entries and their mark bits, per §4.4.
func (h *Hold) CollectGarbage() {
	live := h.LiveCount()
	if h.offset <= 2*live {
		return
	}
	write := 0
	for read := 0; read < h.offset; read++ {
		if h.deleted.Test(read) {
			continue
		}
		h.slots[write] = h.slots[read]
		if h.mark.Test(read) {
			h.mark.Set(write)
		} else {
			h.mark.Clear(write)
		}
		h.deleted.Clear(write)
		write++
	}
	for i := write; i < h.offset; i++ {
		h.slots[i] = nil
	}
	h.deleted.ClearFrom(write)
	h.mark.ClearFrom(write)
	h.offset = write
}
