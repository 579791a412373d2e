package hold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofountain/fountain/pkg/packet"
)

func mkPacket(seed uint64, degree int) *packet.Packet {
	return packet.New(0, seed, degree, 4, 64, make([]byte, 4))
}

func TestAddAndInvariants(t *testing.T) {
	h := New(2)
	for i := 0; i < 5; i++ {
		h.Add(mkPacket(uint64(i+1), 3))
	}
	assert.LessOrEqual(t, h.NumPackets(), h.Offset())
	assert.LessOrEqual(t, h.Offset(), h.NumSlots())
	assert.Equal(t, 5, h.LiveCount())
}

func TestRemoveDoesNotCompact(t *testing.T) {
	h := New(4)
	h.Add(mkPacket(1, 2))
	h.Add(mkPacket(2, 2))
	offsetBefore := h.Offset()

	p, ok := h.Remove(0)
	require.True(t, ok)
	require.NotNil(t, p)

	assert.Equal(t, offsetBefore, h.Offset())
	assert.True(t, h.IsDeleted(0))
	assert.Equal(t, 1, h.LiveCount())
}

func TestRemoveRejectsDoubleRemoval(t *testing.T) {
	h := New(2)
	h.Add(mkPacket(1, 2))
	_, ok := h.Remove(0)
	require.True(t, ok)

	_, ok = h.Remove(0)
	assert.False(t, ok)
}

func TestCollectGarbageCompactsWhenSparse(t *testing.T) {
	h := New(8)
	for i := 0; i < 6; i++ {
		h.Add(mkPacket(uint64(i+1), 2))
	}
	// Remove all but one: offset=6, live=1, 6 > 2*1 -> compacts.
	for i := 0; i < 5; i++ {
		h.Remove(i)
	}
	h.CollectGarbage()

	assert.Equal(t, 1, h.Offset())
	assert.Equal(t, 1, h.NumPackets())
	assert.False(t, h.IsDeleted(0))
}

func TestCollectGarbageNoOpWhenDense(t *testing.T) {
	h := New(4)
	h.Add(mkPacket(1, 2))
	h.Add(mkPacket(2, 2))
	before := h.Offset()
	h.CollectGarbage()
	assert.Equal(t, before, h.Offset())
}

func TestContainsStructuralDuplicate(t *testing.T) {
	h := New(4)
	p := mkPacket(42, 3)
	h.Add(p)

	dup := mkPacket(42, 3)
	assert.True(t, h.Contains(dup))

	distinct := mkPacket(43, 3)
	assert.False(t, h.Contains(distinct))
}

func TestMarkRoundTrip(t *testing.T) {
	h := New(2)
	h.Add(mkPacket(1, 2))
	assert.False(t, h.IsMarked(0))
	h.Mark(0)
	assert.True(t, h.IsMarked(0))
	h.ClearMark(0)
	assert.False(t, h.IsMarked(0))
}

func TestGrowPreservesExistingEntries(t *testing.T) {
	h := New(1)
	first := mkPacket(1, 2)
	h.Add(first)
	second := mkPacket(2, 2)
	h.Add(second) // forces a grow since capacity was 1

	assert.Greater(t, h.NumSlots(), 1)
	assert.Same(t, first, h.At(0))
	assert.Same(t, second, h.At(1))
}
