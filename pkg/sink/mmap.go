//go:build !windows

package sink

import (
	"os"

	"golang.org/x/sys/unix"
)

// MmapSink is the production client-side sink: the whole output file is
// mapped read-write once, and every block read/write is a plain memory
// copy, per §6's "Output file layout" and the DESIGN NOTES on output-sink
// polymorphism. One MmapSink instance spans the whole file; section
// offsets are folded into BlockOffset like FileSink.
type MmapSink struct {
	file        *os.File
	data        []byte
	sectionSize int
	blkSize     int
}

// NewMmapSink truncates file to size bytes and maps it read-write.
// The caller owns file and must Close it after Unmap.
func NewMmapSink(file *os.File, size int64, sectionSize, blkSize int) (*MmapSink, error) {
	if err := file.Truncate(size); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &MmapSink{file: file, data: data, sectionSize: sectionSize, blkSize: blkSize}, nil
}

// ForSection returns a view of the mapping scoped to one section, so the
// decoder can keep using the plain Sink interface per section.
func (m *MmapSink) ForSection(section int) Sink {
	return &mmapSectionView{m: m, section: section}
}

// Unmap releases the mapping. It does not close the underlying file.
func (m *MmapSink) Unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

type mmapSectionView struct {
	m       *MmapSink
	section int
}

func (v *mmapSectionView) ReadBlock(index int, buf []byte) error {
	off := BlockOffset(v.section, v.m.sectionSize, index, v.m.blkSize)
	n := copy(buf, v.m.data[off:off+int64(len(buf))])
	if n < len(buf) {
		return ErrShortWrite
	}
	return nil
}

func (v *mmapSectionView) WriteBlock(index int, buf []byte) error {
	off := BlockOffset(v.section, v.m.sectionSize, index, v.m.blkSize)
	n := copy(v.m.data[off:off+int64(len(buf))], buf)
	if n != len(buf) {
		return ErrShortWrite
	}
	return nil
}
