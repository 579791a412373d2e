package sink

import "io"

// FileSink adapts an io.ReaderAt/io.WriterAt (typically *os.File) into a
// Sink for one section, used by the encoder (read-only) and by tests that
// do not want to exercise the mmap path.
type FileSink struct {
	r           io.ReaderAt
	w           io.WriterAt
	section     int
	sectionSize int
	blkSize     int
}

// NewFileSink builds a FileSink over r/w for the given section geometry.
// Either r or w may be nil if the sink is only ever read from or written
// to.
func NewFileSink(r io.ReaderAt, w io.WriterAt, section, sectionSize, blkSize int) *FileSink {
	return &FileSink{r: r, w: w, section: section, sectionSize: sectionSize, blkSize: blkSize}
}

// ReadBlock implements Sink. Short reads at EOF are zero-padded, per §4.3.
func (f *FileSink) ReadBlock(index int, buf []byte) error {
	off := BlockOffset(f.section, f.sectionSize, index, f.blkSize)
	n, err := f.r.ReadAt(buf, off)
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// WriteBlock implements Sink.
func (f *FileSink) WriteBlock(index int, buf []byte) error {
	off := BlockOffset(f.section, f.sectionSize, index, f.blkSize)
	n, err := f.w.WriteAt(buf, off)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ErrShortWrite
	}
	return nil
}
