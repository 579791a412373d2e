// Package sink provides the decoder's polymorphic output target, per the
// DESIGN NOTES "Polymorphism of output sink": a file-with-seek
// implementation used by the encoder and tests, and a memory-mapped
// implementation used in production by the client, following the
// teacher's Stream/Streamer split in pkg/od/streamer.go where a single
// small interface is satisfied by more than one backing store.
package sink

import "fmt"

// Sink is the interface the decoder writes solved blocks into and the
// encoder reads source blocks from. Every offset is a block index within
// one section; each implementation translates (section, block) to a byte
// offset via BlockOffset.
type Sink interface {
	// ReadBlock reads the blkSize bytes of block index into buf. If the
	// underlying source is shorter than required, the remainder of buf
	// is zero-filled (implicit zero-padding, §4.3).
	ReadBlock(index int, buf []byte) error
	// WriteBlock writes buf (exactly blkSize bytes) to block index.
	WriteBlock(index int, buf []byte) error
}

// BlockOffset returns the byte offset of block `block` within section
// `section`, given the section and block sizes, matching §3's layout:
// (section*sectionSize + block) * blkSize.
func BlockOffset(section, sectionSize, block, blkSize int) int64 {
	return int64(section*sectionSize+block) * int64(blkSize)
}

// ErrShortWrite is returned when a WriteBlock call could not write the
// full block.
var ErrShortWrite = fmt.Errorf("sink: short write")
