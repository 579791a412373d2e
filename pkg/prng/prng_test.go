package prng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCGDeterministic(t *testing.T) {
	a := NewLCG(42)
	b := NewLCG(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestDeriveMembershipExactDegree(t *testing.T) {
	set := DeriveMembership(256, 5, 0xC0FFEE)
	assert.Equal(t, 5, set.PopCount())
}

func TestDeriveMembershipIsDeterministic(t *testing.T) {
	a := DeriveMembership(128, 10, 999)
	b := DeriveMembership(128, 10, 999)
	require.True(t, a.Equal(b))
}

func TestDeriveMembershipDifferentSeedsDiffer(t *testing.T) {
	a := DeriveMembership(128, 10, 1)
	b := DeriveMembership(128, 10, 2)
	assert.False(t, a.Equal(b))
}

func TestChooseDegreeClampsToRange(t *testing.T) {
	for _, x := range []float64{0, 0.25, 0.5, 0.75, 0.999999, 1.0} {
		d := ChooseDegree(64, x)
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 64)
	}
}

func TestChooseDegreeFavoursSmallDegrees(t *testing.T) {
	// Most of the [0,1) domain maps to small y under the cubic curve, so
	// sampling uniformly should produce a majority of low degrees.
	sampler := NewDegreeSampler(7)
	low := 0
	const trials = 2000
	const n = 256
	for i := 0; i < trials; i++ {
		if sampler.Degree(n) <= n/4 {
			low++
		}
	}
	assert.Greater(t, low, trials/2)
}

func TestDegreeSamplerSeedVaries(t *testing.T) {
	sampler := NewDegreeSampler(1)
	first := sampler.Seed()
	second := sampler.Seed()
	assert.NotEqual(t, first, second)
}
