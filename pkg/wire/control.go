package wire

import (
	"bytes"
	"encoding/binary"
)

// Magic values identifying the three control message kinds, per §4.6.
var (
	MagicInfoRequest = binary.BigEndian.Uint32([]byte("RINF"))
	MagicInfoReply   = binary.BigEndian.Uint32([]byte("INFO"))
	MagicWait        = binary.BigEndian.Uint32([]byte("WAIT"))
)

// filenameFieldSize is the fixed char[256] filename field of INFO_REPLY.
const filenameFieldSize = 256

// infoReplySize is the wire length of one INFO_REPLY message.
const infoReplySize = 4 + 2 + 2 + 4 + filenameFieldSize

// ProtocolError is a typed sentinel for wire-level validation failures,
// mirroring sdo_common.go's SDOAbortCode: a small integer code with an
// Error() string pulled from a fixed explanation table.
type ProtocolError uint8

const (
	// ErrBadMagicCode reports a control message with an unrecognised
	// magic prefix; §4.6 says the server fails closed on this.
	ErrBadMagicCode ProtocolError = iota + 1
	// ErrTruncatedCode reports a control message shorter than its
	// fixed-size header.
	ErrTruncatedCode
	// ErrNegativeSizeCode reports an INFO_REPLY whose section_size,
	// blk_size, or filesize field decoded as negative.
	ErrNegativeSizeCode
)

var protocolErrorExplanation = map[ProtocolError]string{
	ErrBadMagicCode:     "wire: unrecognised control message magic",
	ErrTruncatedCode:    "wire: control message shorter than its header",
	ErrNegativeSizeCode: "wire: info reply carries a negative size field",
}

func (e ProtocolError) Error() string {
	if s, ok := protocolErrorExplanation[e]; ok {
		return s
	}
	return "wire: unknown protocol error"
}

// IdentifyMagic reads the leading 4-byte magic of a control message
// without validating the rest of it, letting the caller dispatch before
// committing to a specific decode.
func IdentifyMagic(raw []byte) (uint32, error) {
	if len(raw) < 4 {
		return 0, ErrTruncatedCode
	}
	return binary.BigEndian.Uint32(raw[0:4]), nil
}

// EncodeInfoRequest returns the 4-byte INFO_REQUEST datagram.
func EncodeInfoRequest() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, MagicInfoRequest)
	return buf
}

// FileInfo is the decoded payload of an INFO_REPLY message.
type FileInfo struct {
	SectionSize int
	BlkSize     int
	Filesize    int32
	Filename    string
}

// EncodeInfoReply serialises info as an INFO_REPLY datagram. filename is
// truncated to filenameFieldSize-1 bytes and NUL-terminated, matching the
// original char[256] field.
func EncodeInfoReply(info FileInfo) []byte {
	buf := make([]byte, infoReplySize)
	binary.BigEndian.PutUint32(buf[0:4], MagicInfoReply)
	binary.BigEndian.PutUint16(buf[4:6], uint16(int16(info.SectionSize)))
	binary.BigEndian.PutUint16(buf[6:8], uint16(int16(info.BlkSize)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(info.Filesize))
	name := info.Filename
	if len(name) > filenameFieldSize-1 {
		name = name[:filenameFieldSize-1]
	}
	copy(buf[12:12+filenameFieldSize], name)
	return buf
}

// DecodeInfoReply parses raw as an INFO_REPLY message.
func DecodeInfoReply(raw []byte) (FileInfo, error) {
	if len(raw) < infoReplySize {
		return FileInfo{}, ErrTruncatedCode
	}
	magic := binary.BigEndian.Uint32(raw[0:4])
	if magic != MagicInfoReply {
		return FileInfo{}, ErrBadMagicCode
	}
	sectionSize := int(int16(binary.BigEndian.Uint16(raw[4:6])))
	blkSize := int(int16(binary.BigEndian.Uint16(raw[6:8])))
	filesize := int32(binary.BigEndian.Uint32(raw[8:12]))
	if sectionSize < 0 || blkSize < 0 || filesize < 0 {
		return FileInfo{}, ErrNegativeSizeCode
	}
	nameField := raw[12 : 12+filenameFieldSize]
	if nul := bytes.IndexByte(nameField, 0); nul >= 0 {
		nameField = nameField[:nul]
	}
	return FileInfo{
		SectionSize: sectionSize,
		BlkSize:     blkSize,
		Filesize:    filesize,
		Filename:    string(nameField),
	}, nil
}

// SectionCapacity is one (section, capacity) pair declared by a WAIT
// message: the client is ready to receive up to Capacity more packets
// for Section.
type SectionCapacity struct {
	Section  uint16
	Capacity uint16
}

// EncodeWait serialises a WAIT control message declaring capacities for
// up to NUM_CACHES sections.
func EncodeWait(sections []SectionCapacity) []byte {
	buf := make([]byte, 4+2+4*len(sections))
	binary.BigEndian.PutUint32(buf[0:4], MagicWait)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(sections)))
	off := 6
	for _, sc := range sections {
		binary.BigEndian.PutUint16(buf[off:off+2], sc.Section)
		binary.BigEndian.PutUint16(buf[off+2:off+4], sc.Capacity)
		off += 4
	}
	return buf
}

// DecodeWait parses raw as a WAIT control message.
func DecodeWait(raw []byte) ([]SectionCapacity, error) {
	if len(raw) < 6 {
		return nil, ErrTruncatedCode
	}
	magic := binary.BigEndian.Uint32(raw[0:4])
	if magic != MagicWait {
		return nil, ErrBadMagicCode
	}
	numSections := int(binary.BigEndian.Uint16(raw[4:6]))
	if len(raw) != 6+4*numSections {
		return nil, ErrTruncatedCode
	}
	out := make([]SectionCapacity, numSections)
	off := 6
	for i := range out {
		out[i] = SectionCapacity{
			Section:  binary.BigEndian.Uint16(raw[off : off+2]),
			Capacity: binary.BigEndian.Uint16(raw[off+2 : off+4]),
		}
		off += 4
	}
	return out, nil
}
