// Package decoder implements the iterative peeling/reduction engine of
// §4.5: given a decode_state for one section and an incoming fountain
// packet, it either solves a block, parks the packet in the hold, or
// reports the packet as already decoded.
package decoder

import (
	"github.com/gofountain/fountain/internal/bitset"
	"github.com/gofountain/fountain/pkg/hold"
	"github.com/gofountain/fountain/pkg/sink"
)

// State is the per-section decode state: the solved-block table, the
// packet hold, and the output sink, per §3's "Decode state (per section)".
//
// State carries no logger; it is driven by the client control loop, which
// logs the Result it returns (§4.5's note on the teacher's OD/SDO split
// between pure state transitions and caller-side logging).
type State struct {
	sectionSize  int
	blkSize      int
	solved       *bitset.Set
	hold         *hold.Hold
	sink         sink.Sink
	packetsSoFar int
}

// New creates a decode state for one section of sectionSize blocks of
// blkSize bytes each, writing solved blocks into out.
func New(sectionSize, blkSize int, out sink.Sink, initialHoldSlots int) *State {
	return &State{
		sectionSize: sectionSize,
		blkSize:     blkSize,
		solved:      bitset.New(sectionSize),
		hold:        hold.New(initialHoldSlots),
		sink:        out,
	}
}

// SectionSize returns the number of blocks in this section.
func (s *State) SectionSize() int { return s.sectionSize }

// IsSolved reports whether block index has already been written.
func (s *State) IsSolved(index int) bool { return s.solved.Test(index) }

// SolvedCount returns the number of blocks solved so far.
func (s *State) SolvedCount() int { return s.solved.PopCount() }

// Complete reports whether every block of the section has been solved.
func (s *State) Complete() bool { return s.solved.PopCount() == s.sectionSize }

// PacketsSoFar returns the number of packets ever passed to Decode for
// this section, used for logging and diagnostics.
func (s *State) PacketsSoFar() int { return s.packetsSoFar }

// HoldLen reports the number of live entries currently parked, used by
// tests and diagnostics to assert the hold empties out at completion.
func (s *State) HoldLen() int { return s.hold.LiveCount() }

func (s *State) solveBlock(index int, payload []byte) error {
	if err := s.sink.WriteBlock(index, payload); err != nil {
		return err
	}
	s.solved.Set(index)
	return nil
}
