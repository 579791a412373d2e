package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofountain/fountain/internal/bitset"
	"github.com/gofountain/fountain/pkg/packet"
)

const blkSize = 4

var (
	blockA = []byte{1, 1, 1, 1}
	blockB = []byte{2, 2, 2, 2}
	blockC = []byte{3, 3, 3, 3}
)

type memSink struct {
	blocks [][]byte
}

func newMemSink(n int) *memSink {
	blocks := make([][]byte, n)
	for i := range blocks {
		blocks[i] = make([]byte, blkSize)
	}
	return &memSink{blocks: blocks}
}

func (m *memSink) ReadBlock(index int, buf []byte) error {
	copy(buf, m.blocks[index])
	return nil
}

func (m *memSink) WriteBlock(index int, buf []byte) error {
	copy(m.blocks[index], buf)
	return nil
}

func xorBytes(parts ...[]byte) []byte {
	out := make([]byte, blkSize)
	for _, p := range parts {
		for i := range out {
			out[i] ^= p[i]
		}
	}
	return out
}

// mkPacket builds a packet with an explicit membership, bypassing
// packet.New's seed-derived membership so tests can exercise exact
// decoder branches without reverse-engineering LCG seeds.
func mkPacket(section uint16, sectionSize int, payload []byte, bits ...int) *packet.Packet {
	m := bitset.New(sectionSize)
	for _, b := range bits {
		m.Set(b)
	}
	p := make([]byte, blkSize)
	copy(p, payload)
	return &packet.Packet{
		Section:    section,
		Seed:       0,
		NumBlocks:  len(bits),
		BlkSize:    blkSize,
		Payload:    p,
		Membership: m,
	}
}

func TestDecodeDegreeOneSolvesThenAlreadyDecoded(t *testing.T) {
	sink := newMemSink(4)
	state := New(4, blkSize, sink, 2)

	res, err := Decode(state, mkPacket(0, 4, blockA, 0))
	require.NoError(t, err)
	assert.Equal(t, Decoded, res)
	assert.True(t, state.IsSolved(0))

	got := make([]byte, blkSize)
	require.NoError(t, sink.ReadBlock(0, got))
	assert.Equal(t, blockA, got)

	res, err = Decode(state, mkPacket(0, 4, blockA, 0))
	require.NoError(t, err)
	assert.Equal(t, AlreadyDecoded, res)
}

func TestDecodeCascadePropagatesThroughHoldToCompletion(t *testing.T) {
	sink := newMemSink(2)
	state := New(2, blkSize, sink, 2)

	res, err := Decode(state, mkPacket(0, 2, xorBytes(blockA, blockB), 0, 1))
	require.NoError(t, err)
	assert.Equal(t, Parked, res)
	assert.Equal(t, 1, state.HoldLen())

	res, err = Decode(state, mkPacket(0, 2, blockA, 0))
	require.NoError(t, err)
	assert.Equal(t, SectionComplete, res)
	assert.True(t, state.IsSolved(0))
	assert.True(t, state.IsSolved(1))
	assert.Equal(t, 0, state.HoldLen())

	gotB := make([]byte, blkSize)
	require.NoError(t, sink.ReadBlock(1, gotB))
	assert.Equal(t, blockB, gotB)
}

func TestDecodeParksUnreducibleHighDegreePacket(t *testing.T) {
	sink := newMemSink(4)
	state := New(4, blkSize, sink, 2)

	res, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB, blockC), 0, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, Parked, res)
	assert.Equal(t, 1, state.HoldLen())
}

func TestDecodeReducesFreshPacketAgainstSmallerHoldEntry(t *testing.T) {
	sink := newMemSink(4)
	state := New(4, blkSize, sink, 2)

	_, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB), 0, 1))
	require.NoError(t, err)

	res, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB, blockC), 0, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, Decoded, res)
	assert.True(t, state.IsSolved(2))

	got := make([]byte, blkSize)
	require.NoError(t, sink.ReadBlock(2, got))
	assert.Equal(t, blockC, got)
}

func TestDecodeReducesLargerHoldEntryAndPromotesIt(t *testing.T) {
	sink := newMemSink(4)
	state := New(4, blkSize, sink, 2)

	_, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB, blockC), 0, 1, 2))
	require.NoError(t, err)
	require.Equal(t, 1, state.HoldLen())

	res, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB), 0, 1))
	require.NoError(t, err)
	assert.Equal(t, Parked, res)
	assert.True(t, state.IsSolved(2))

	got := make([]byte, blkSize)
	require.NoError(t, sink.ReadBlock(2, got))
	assert.Equal(t, blockC, got)
	assert.Equal(t, 1, state.HoldLen())
}

func TestDecodePeelsAlreadySolvedBitsBeforeParking(t *testing.T) {
	sink := newMemSink(4)
	state := New(4, blkSize, sink, 2)

	_, err := Decode(state, mkPacket(0, 4, blockA, 0))
	require.NoError(t, err)
	require.True(t, state.IsSolved(0))

	res, err := Decode(state, mkPacket(0, 4, xorBytes(blockA, blockB, blockC), 0, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, Parked, res)

	stored := state.hold.At(0)
	assert.Equal(t, 2, stored.NumBlocks)
	assert.Equal(t, xorBytes(blockB, blockC), stored.Payload)
}

func TestResultStringCoversAllValues(t *testing.T) {
	for _, r := range []Result{Decoded, AlreadyDecoded, Parked, SectionComplete, Result(99)} {
		assert.NotEmpty(t, r.String())
	}
}
