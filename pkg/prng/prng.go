// Package prng implements the two random sources the fountain protocol
// needs: the deterministic LCG that both encoder and decoder use to turn a
// packet seed into a block membership set, and the degree/seed sampler the
// encoder uses when it fabricates a fresh packet.
package prng

import (
	"math"
	"math/rand"

	"github.com/gofountain/fountain/internal/bitset"
)

// LCG is the linear congruential generator specified for membership
// derivation: next = seed*1103515245 + 12345, taking bits (next>>16)&0x7FFF
// as the draw. It must behave identically on encoder and decoder, so unlike
// DegreeSampler below it is never backed by math/rand.
type LCG struct {
	state uint64
}

// NewLCG seeds a generator. The same seed always produces the same stream.
func NewLCG(seed uint64) *LCG {
	return &LCG{state: seed}
}

// Next advances the generator and returns the next 15-bit draw.
func (g *LCG) Next() uint16 {
	g.state = g.state*1103515245 + 12345
	return uint16((g.state >> 16) & 0x7FFF)
}

// DeriveMembership returns the bitset.Set of size n with exactly d bits
// set, deterministic in (n, d, seed): repeatedly draw r = next() mod n,
// set bit r, retry on collision, until d distinct bits are set.
func DeriveMembership(n, d int, seed uint64) *bitset.Set {
	set := bitset.New(n)
	gen := NewLCG(seed)
	setCount := 0
	for setCount < d {
		r := int(gen.Next()) % n
		if !set.Test(r) {
			set.Set(r)
			setCount++
		}
	}
	return set
}

// ChooseDegree implements the cubic degree distribution from §4.2: given a
// uniform draw x in [0,1), y = x^3 for x<=0.5 else 1-x^3, and
// d = min(1+floor(n*y), n). The result is always clamped to [1, n] to cover
// revisions of the original algorithm that mishandle x observed at its
// upper bound.
func ChooseDegree(n int, x float64) int {
	var y float64
	if x <= 0.5 {
		y = x * x * x
	} else {
		y = 1 - x*x*x
	}
	d := 1 + int(math.Floor(float64(n)*y))
	if d < 1 {
		d = 1
	}
	if d > n {
		d = n
	}
	return d
}

// DegreeSampler draws the (degree, seed) pair an encoder needs for a fresh
// packet. Unlike LCG this is not required to be reproducible across
// processes — each packet is independently generated — so it is backed by
// math/rand, following the standard library's own "not cryptographically
// secure, fine for simulation/selection" rationale; no example repo in this
// corpus reaches for a third-party PRNG for non-adversarial sampling like
// this one.
type DegreeSampler struct {
	rng *rand.Rand
}

// NewDegreeSampler builds a sampler seeded from seed. Use a time- or
// crypto/rand-derived seed in production to avoid repeated encoder runs
// producing identical degree sequences.
func NewDegreeSampler(seed int64) *DegreeSampler {
	return &DegreeSampler{rng: rand.New(rand.NewSource(seed))}
}

// Degree samples one degree value for a section of size n.
func (s *DegreeSampler) Degree(n int) int {
	return ChooseDegree(n, s.rng.Float64())
}

// Seed samples a fresh 64-bit packet seed.
func (s *DegreeSampler) Seed() uint64 {
	return s.rng.Uint64()
}
