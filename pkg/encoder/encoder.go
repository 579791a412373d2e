// Package encoder produces fountain packets from a file section, per
// §4.3: sample a degree and a seed, derive the block membership, and XOR
// the selected blocks together into a payload.
package encoder

import (
	"github.com/gofountain/fountain/pkg/packet"
	"github.com/gofountain/fountain/pkg/prng"
	"github.com/gofountain/fountain/pkg/sink"
)

// Encoder produces fountain packets for one section of a source held
// behind a sink.Sink, grounded on original_source/fountain.c's
// fmake_fountain. It holds an io.ReaderAt-backed sink rather than a bare
// file handle, so the same encoder runs against an in-memory
// bytes.Reader in tests.
type Encoder struct {
	src         sink.Sink
	section     uint16
	sectionSize int
	blkSize     int
	sampler     *prng.DegreeSampler
}

// New builds an Encoder that reads section `section` of sectionSize
// blocks of blkSize bytes each from src, sampling degrees and seeds from
// sampler.
func New(src sink.Sink, section uint16, sectionSize, blkSize int, sampler *prng.DegreeSampler) *Encoder {
	return &Encoder{
		src:         src,
		section:     section,
		sectionSize: sectionSize,
		blkSize:     blkSize,
		sampler:     sampler,
	}
}

// Next produces one fresh fountain packet: it samples a degree and seed,
// derives membership, and XORs the selected blocks' contents into the
// payload. It returns an error only when a block read from the source
// fails for a reason other than the implicit zero-padding the sink
// already performs at EOF (§4.3's "abort the packet" failure mode).
func (e *Encoder) Next() (*packet.Packet, error) {
	d := e.sampler.Degree(e.sectionSize)
	seed := e.sampler.Seed()

	payload := make([]byte, e.blkSize)
	p := packet.New(e.section, seed, d, e.blkSize, e.sectionSize, payload)

	buf := make([]byte, e.blkSize)
	for b := p.Membership.LowestSetAbove(0); b >= 0; b = p.Membership.LowestSetAbove(b + 1) {
		if err := e.src.ReadBlock(b, buf); err != nil {
			return nil, err
		}
		p.XorPayload(buf)
	}
	return p, nil
}
