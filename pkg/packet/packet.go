// Package packet defines the in-memory fountain packet: the XOR of a
// pseudo-random subset of a section's blocks, together with the bitset
// that records which blocks were chosen.
package packet

import (
	"bytes"

	"github.com/gofountain/fountain/internal/bitset"
	"github.com/gofountain/fountain/pkg/prng"
)

// Packet is one fountain-coded unit for a single section, per §3.
//
// Membership is never transmitted on the wire; it is always recomputed
// from (sectionSize, NumBlocks, Seed) by New, so that a Packet built from
// a received frame and one built by the encoder from the same
// (section, seed, degree) triple are indistinguishable.
type Packet struct {
	Section    uint16
	Seed       uint64
	NumBlocks  int
	BlkSize    int
	Payload    []byte
	Membership *bitset.Set
}

// New builds a Packet and derives its Membership bitset from seed, per
// §4.2. sectionSize is the number of blocks in the owning section.
func New(section uint16, seed uint64, numBlocks, blkSize, sectionSize int, payload []byte) *Packet {
	return &Packet{
		Section:    section,
		Seed:       seed,
		NumBlocks:  numBlocks,
		BlkSize:    blkSize,
		Payload:    payload,
		Membership: prng.DeriveMembership(sectionSize, numBlocks, seed),
	}
}

// SingleBlockIndex returns the sole member block index and true when the
// packet has degree 1 (Case A of the decoder), or (0, false) otherwise.
func (p *Packet) SingleBlockIndex() (int, bool) {
	if p.NumBlocks != 1 {
		return 0, false
	}
	idx := p.Membership.LowestSetAbove(0)
	return idx, idx >= 0
}

// XorPayload XORs other's payload into p's payload in place. Both payloads
// must be the same length.
func (p *Packet) XorPayload(other []byte) {
	for i := range p.Payload {
		p.Payload[i] ^= other[i]
	}
}

// Reduce XORs src out of p: payload, membership, and degree are all
// updated together, per §4.5's `reduce(ftn, hold[i])`.
func (p *Packet) Reduce(src *Packet) {
	p.XorPayload(src.Payload)
	p.Membership.Xor(src.Membership)
	p.NumBlocks -= src.NumBlocks
}

// Equal does an exact structural comparison, used by the hold's
// admission check (§4.4 contains).
func (p *Packet) Equal(other *Packet) bool {
	if p.Section != other.Section || p.Seed != other.Seed {
		return false
	}
	if p.NumBlocks != other.NumBlocks || p.BlkSize != other.BlkSize {
		return false
	}
	if !p.Membership.Equal(other.Membership) {
		return false
	}
	return bytes.Equal(p.Payload, other.Payload)
}

// Clone returns a deep copy of p, used where a packet's buffers must
// outlive an in-place reduction elsewhere.
func (p *Packet) Clone() *Packet {
	payload := make([]byte, len(p.Payload))
	copy(payload, p.Payload)
	return &Packet{
		Section:    p.Section,
		Seed:       p.Seed,
		NumBlocks:  p.NumBlocks,
		BlkSize:    p.BlkSize,
		Payload:    payload,
		Membership: p.Membership.Clone(),
	}
}
