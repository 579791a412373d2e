package bitset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetClearTest(t *testing.T) {
	s := New(128)
	assert.False(t, s.Test(5))
	s.Set(5)
	assert.True(t, s.Test(5))
	s.Clear(5)
	assert.False(t, s.Test(5))
}

func TestPopCount(t *testing.T) {
	s := New(256)
	for _, i := range []int{0, 1, 63, 64, 200, 255} {
		s.Set(i)
	}
	assert.Equal(t, 6, s.PopCount())
}

func TestLowestSetAbove(t *testing.T) {
	s := New(200)
	s.Set(10)
	s.Set(70)
	s.Set(199)

	assert.Equal(t, 10, s.LowestSetAbove(0))
	assert.Equal(t, 70, s.LowestSetAbove(11))
	assert.Equal(t, 199, s.LowestSetAbove(71))
	assert.Equal(t, -1, s.LowestSetAbove(200))
}

func TestIsSubset(t *testing.T) {
	a := New(128)
	b := New(128)
	a.Set(3)
	a.Set(5)
	b.Set(3)
	b.Set(5)
	b.Set(90)

	require.True(t, IsSubset(a, b))
	require.False(t, IsSubset(b, a))

	// Every set is a subset of itself.
	require.True(t, IsSubset(a, a))
}

func TestXor(t *testing.T) {
	a := New(64)
	b := New(64)
	a.Set(1)
	a.Set(2)
	b.Set(2)
	b.Set(3)

	a.Xor(b)
	assert.True(t, a.Test(1))
	assert.False(t, a.Test(2))
	assert.True(t, a.Test(3))
}

func TestCloneAndEqual(t *testing.T) {
	a := New(512)
	a.Set(100)
	a.Set(400)
	b := a.Clone()

	assert.True(t, a.Equal(b))
	b.Set(1)
	assert.False(t, a.Equal(b))
}

// TestIsSubsetAgreesWithNaiveReference exercises IsSubset against random sets of the
// common sizes used by the protocol, standing in for the SIMD-vs-scalar
// cross-check the spec calls for; this build only has the scalar path, so
// it is checked against a naive bit-by-bit reference instead.
func TestIsSubsetAgreesWithNaiveReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{128, 256, 512, 1024} {
		for trial := 0; trial < 20; trial++ {
			a := New(n)
			b := New(n)
			for i := 0; i < n; i++ {
				if rng.Intn(4) == 0 {
					a.Set(i)
				}
				if rng.Intn(2) == 0 {
					b.Set(i)
				}
			}
			naive := true
			for i := 0; i < n; i++ {
				if a.Test(i) && !b.Test(i) {
					naive = false
					break
				}
			}
			assert.Equal(t, naive, IsSubset(a, b))
		}
	}
}
