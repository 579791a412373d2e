// Package wire implements the fountain protocol's byte-level codec: the
// fletcher16-checked packet frame and the three control messages
// (INFO_REQUEST, INFO_REPLY, WAIT), per §4.6.
//
// Frame fields are read and written at fixed offsets of the raw byte
// slice with encoding/binary.BigEndian, rather than through a reflective
// encoding/binary struct decode, so the per-datagram path never touches
// reflect. There is no frame wrapper type: DecodeFrame returns a
// *packet.Packet with a freshly allocated payload.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/gofountain/fountain/internal/checksum"
	"github.com/gofountain/fountain/pkg/packet"
)

// FrameHeaderSize is the byte length of a packet frame before its
// payload: checksum(2) + num_blocks(4) + blk_size(2) + section(2) +
// seed(8).
const FrameHeaderSize = 2 + 4 + 2 + 2 + 8

var (
	// ErrShortFrame is returned when a buffer is too small to hold a
	// complete frame header, or its declared payload length disagrees
	// with the buffer's actual length.
	ErrShortFrame = errors.New("wire: frame shorter than declared length")
	// ErrChecksumMismatch is returned when a frame's Fletcher-16
	// checksum does not match its contents; the caller MUST drop the
	// frame silently per §4.6.
	ErrChecksumMismatch = errors.New("wire: checksum mismatch")
)

// EncodeFrame serialises p into a wire frame, computing its Fletcher-16
// checksum over every byte after the checksum field itself. Membership
// is never serialised; the receiver recomputes it from
// (section_size, num_blocks, seed).
func EncodeFrame(p *packet.Packet) []byte {
	buf := make([]byte, FrameHeaderSize+len(p.Payload))
	binary.BigEndian.PutUint32(buf[2:6], uint32(p.NumBlocks))
	binary.BigEndian.PutUint16(buf[6:8], uint16(p.BlkSize))
	binary.BigEndian.PutUint16(buf[8:10], p.Section)
	binary.BigEndian.PutUint64(buf[10:18], p.Seed)
	copy(buf[FrameHeaderSize:], p.Payload)
	binary.BigEndian.PutUint16(buf[0:2], checksum.Compute(buf[2:]))
	return buf
}

// DecodeFrame parses and checksum-validates raw as a packet frame for a
// section of sectionSize blocks, rederiving the packet's membership bitset
// from (sectionSize, num_blocks, seed). Callers MUST drop the
// datagram on any returned error rather than propagate it as a fatal
// condition, per §4.6 and §7's checksum_mismatch policy.
func DecodeFrame(raw []byte, sectionSize int) (*packet.Packet, error) {
	if len(raw) < FrameHeaderSize {
		return nil, ErrShortFrame
	}
	numBlocks := int(int32(binary.BigEndian.Uint32(raw[2:6])))
	blkSize := int(int16(binary.BigEndian.Uint16(raw[6:8])))
	section := binary.BigEndian.Uint16(raw[8:10])
	seed := binary.BigEndian.Uint64(raw[10:18])

	if len(raw) != FrameHeaderSize+blkSize {
		return nil, ErrShortFrame
	}
	want := binary.BigEndian.Uint16(raw[0:2])
	if got := checksum.Compute(raw[2:]); got != want {
		return nil, ErrChecksumMismatch
	}
	payload := make([]byte, blkSize)
	copy(payload, raw[FrameHeaderSize:])
	return packet.New(section, seed, numBlocks, blkSize, sectionSize, payload), nil
}
