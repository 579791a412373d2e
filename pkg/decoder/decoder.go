package decoder

import (
	"errors"

	"github.com/gofountain/fountain/internal/bitset"
	"github.com/gofountain/fountain/pkg/packet"
)

// Result is the outcome of one Decode call, mirrored on the teacher's SDO
// server state-machine handlers: a small enum plus an error.
type Result int

const (
	// Decoded reports that ftn (or a packet produced by reducing it) was
	// written to the sink as a newly solved block.
	Decoded Result = iota
	// AlreadyDecoded reports that ftn's sole block was already solved.
	AlreadyDecoded
	// Parked reports that ftn could not be reduced further and was
	// admitted to the hold.
	Parked
	// SectionComplete reports that this call solved the section's last
	// remaining block.
	SectionComplete
)

func (r Result) String() string {
	switch r {
	case Decoded:
		return "decoded"
	case AlreadyDecoded:
		return "already_decoded"
	case Parked:
		return "parked"
	case SectionComplete:
		return "section_complete"
	default:
		return "unknown"
	}
}

// ErrDegenerateSingle is returned when a degree-1 packet carries an empty
// membership set, which cannot arise from a correctly derived membership
// and indicates a corrupt or forged frame that slipped past the checksum.
var ErrDegenerateSingle = errors.New("decoder: degree-1 packet has no member block")

// Decode feeds one incoming packet through the peeling/reduction engine
// of §4.5 and reports what happened. ftn is consumed: its payload and
// membership may be mutated in place, and it may end up owned by the
// hold. Callers must not reuse ftn after calling Decode.
func Decode(state *State, ftn *packet.Packet) (Result, error) {
	state.packetsSoFar++
	result, err := decodeOne(state, ftn)
	if err != nil {
		return 0, err
	}
	if result == Decoded && state.Complete() {
		return SectionComplete, nil
	}
	return result, nil
}

func decodeOne(state *State, ftn *packet.Packet) (Result, error) {
	for {
		if ftn.NumBlocks == 1 {
			idx, ok := ftn.SingleBlockIndex()
			if !ok {
				return 0, ErrDegenerateSingle
			}
			if state.IsSolved(idx) {
				return AlreadyDecoded, nil
			}
			if err := state.solveBlock(idx, ftn.Payload); err != nil {
				return 0, err
			}
			if err := state.propagateForward(ftn); err != nil {
				return 0, err
			}
			state.hold.CollectGarbage()
			return Decoded, nil
		}

		retest, err := state.peelSolvedBits(ftn)
		if err != nil {
			return 0, err
		}
		if retest {
			continue
		}

		retest, err = state.reduceAgainstHold(ftn)
		if err != nil {
			return 0, err
		}
		if retest {
			continue
		}

		if !state.hold.Contains(ftn) {
			state.hold.Add(ftn)
		}
		state.hold.CollectGarbage()
		return Parked, nil
	}
}

// propagateForward implements Case A step 3: every live hold entry whose
// membership is a superset of ftn's is reduced by ftn; any that drops to
// degree 1 is extracted and solved, cascading recursively. It never
// triggers collect_garbage itself, so that a recursive call never
// compacts the hold out from under an in-progress scan; the caller
// collects garbage once after the whole cascade settles.
func (s *State) propagateForward(ftn *packet.Packet) error {
	for i := 0; i < s.hold.NumPackets(); i++ {
		if s.hold.IsDeleted(i) {
			continue
		}
		h := s.hold.At(i)
		if !bitset.IsSubset(ftn.Membership, h.Membership) {
			continue
		}
		h.Reduce(ftn)
		if h.NumBlocks != 1 {
			continue
		}
		removed, ok := s.hold.Remove(i)
		if !ok {
			continue
		}
		idx, ok := removed.SingleBlockIndex()
		if !ok || s.IsSolved(idx) {
			continue
		}
		if err := s.solveBlock(idx, removed.Payload); err != nil {
			return err
		}
		if err := s.propagateForward(removed); err != nil {
			return err
		}
	}
	return nil
}

// peelSolvedBits implements Case B step 1: it scans every set bit of
// ftn's membership for one already solved, and if found, peels that
// single block out of ftn (XOR, clear bit, decrement degree) and reports
// retest=true so the caller restarts from the top of the main loop.
func (s *State) peelSolvedBits(ftn *packet.Packet) (bool, error) {
	for j := ftn.Membership.LowestSetAbove(0); j >= 0; j = ftn.Membership.LowestSetAbove(j + 1) {
		if !s.IsSolved(j) {
			continue
		}
		buf := make([]byte, s.blkSize)
		if err := s.sink.ReadBlock(j, buf); err != nil {
			return false, err
		}
		ftn.XorPayload(buf)
		ftn.Membership.Clear(j)
		ftn.NumBlocks--
		return true, nil
	}
	return false, nil
}

// reduceAgainstHold implements Case B step 2: it tries to shrink ftn
// using a smaller hold entry, or shrink a larger hold entry using ftn.
// Entries reduced down to degree 1 along the way are promoted as in Case
// A step 2 (written to the sink and marked solved), without the
// recursive forward-propagation cascade — the next packet to touch that
// block will trigger it via peelSolvedBits.
func (s *State) reduceAgainstHold(ftn *packet.Packet) (bool, error) {
	retest := false
	for i := 0; i < s.hold.NumPackets(); i++ {
		if s.hold.IsDeleted(i) {
			continue
		}
		h := s.hold.At(i)
		switch {
		case h.NumBlocks == ftn.NumBlocks:
			continue
		case h.NumBlocks > ftn.NumBlocks:
			if bitset.IsSubset(ftn.Membership, h.Membership) {
				h.Reduce(ftn)
				s.hold.Mark(i)
			}
		default:
			if bitset.IsSubset(h.Membership, ftn.Membership) {
				ftn.Reduce(h)
				retest = true
			}
		}
		if retest {
			break
		}
	}

	for i := 0; i < s.hold.NumPackets(); i++ {
		if s.hold.IsDeleted(i) || !s.hold.IsMarked(i) {
			continue
		}
		h := s.hold.At(i)
		if h.NumBlocks != 1 {
			s.hold.ClearMark(i)
			continue
		}
		removed, ok := s.hold.Remove(i)
		if !ok {
			continue
		}
		idx, ok := removed.SingleBlockIndex()
		if !ok || s.IsSolved(idx) {
			continue
		}
		if err := s.solveBlock(idx, removed.Payload); err != nil {
			return false, err
		}
	}

	return retest, nil
}
