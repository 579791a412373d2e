package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyMagicDistinguishesMessages(t *testing.T) {
	got, err := IdentifyMagic(EncodeInfoRequest())
	require.NoError(t, err)
	assert.Equal(t, MagicInfoRequest, got)

	got, err = IdentifyMagic(EncodeInfoReply(FileInfo{SectionSize: 128, BlkSize: 64, Filesize: 10, Filename: "a.txt"}))
	require.NoError(t, err)
	assert.Equal(t, MagicInfoReply, got)

	got, err = IdentifyMagic(EncodeWait([]SectionCapacity{{Section: 0, Capacity: 4}}))
	require.NoError(t, err)
	assert.Equal(t, MagicWait, got)
}

func TestIdentifyMagicRejectsTruncatedInput(t *testing.T) {
	_, err := IdentifyMagic([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncatedCode)
}

func TestInfoReplyRoundTrips(t *testing.T) {
	info := FileInfo{SectionSize: 128, BlkSize: 256, Filesize: 140000, Filename: "movie.mp4"}
	raw := EncodeInfoReply(info)
	assert.Len(t, raw, infoReplySize)

	got, err := DecodeInfoReply(raw)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestInfoReplyRejectsBadMagic(t *testing.T) {
	raw := EncodeInfoReply(FileInfo{Filename: "x"})
	raw[0] ^= 0xFF

	_, err := DecodeInfoReply(raw)
	assert.ErrorIs(t, err, ProtocolError(ErrBadMagicCode))
}

func TestWaitRoundTrips(t *testing.T) {
	sections := []SectionCapacity{
		{Section: 0, Capacity: 10},
		{Section: 1, Capacity: 5},
		{Section: 2, Capacity: 0},
	}
	raw := EncodeWait(sections)

	got, err := DecodeWait(raw)
	require.NoError(t, err)
	assert.Equal(t, sections, got)
}

func TestWaitRejectsLengthMismatch(t *testing.T) {
	raw := EncodeWait([]SectionCapacity{{Section: 0, Capacity: 1}})
	_, err := DecodeWait(raw[:len(raw)-1])
	assert.ErrorIs(t, err, ErrTruncatedCode)
}

func TestProtocolErrorStringIsStable(t *testing.T) {
	assert.NotEmpty(t, ErrBadMagicCode.Error())
	assert.NotEmpty(t, ErrTruncatedCode.Error())
	assert.NotEmpty(t, ErrNegativeSizeCode.Error())
	assert.NotEmpty(t, ProtocolError(200).Error())
}
