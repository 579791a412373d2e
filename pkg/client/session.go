package client

import (
	"net"

	"github.com/gofountain/fountain/pkg/cache"
	"github.com/gofountain/fountain/pkg/decoder"
	"github.com/gofountain/fountain/pkg/sink"
	"github.com/gofountain/fountain/pkg/wire"
)

// SinkFactory returns the output sink for one section, letting Session
// stay agnostic of whether the backing store is a memory-mapped file
// (production, pkg/sink.MmapSink) or a plain ReaderAt/WriterAt (tests).
type SinkFactory func(section int) sink.Sink

// Progress is reported once per get_packet cycle (§10).
type Progress struct {
	SectionsSolved   int
	TotalSections    int
	BytesWritten     int64
	PacketsReceived  uint64
	PacketsDiscarded uint64
}

// ProgressFunc receives a Progress snapshot.
type ProgressFunc func(Progress)

// Session aggregates the negotiated file info, per-section decode
// states, the cache ring, and the transfer counters used for
// diagnostics, per §3's "Transfer session (client-side)".
type Session struct {
	conn       *net.UDPConn
	serverAddr *net.UDPAddr
	info       wire.FileInfo
	sinkFor    SinkFactory
	ring       *cache.Ring
	states     map[int]*decoder.State
	progress   ProgressFunc

	numSections int

	discarded       uint64
	packetsReceived uint64
	bytesWritten    int64
}

// NewSession builds a Session for a negotiated transfer. sinkFor
// supplies the output sink for each section as it is first touched.
func NewSession(conn *net.UDPConn, serverAddr *net.UDPAddr, info wire.FileInfo, sinkFor SinkFactory, cacheMultiplier int) *Session {
	numSections := 1
	sectionBytes := info.SectionSize * info.BlkSize
	if sectionBytes > 0 {
		numSections = (int(info.Filesize) + sectionBytes - 1) / sectionBytes
		if numSections < 1 {
			numSections = 1
		}
	}
	return &Session{
		conn:        conn,
		serverAddr:  serverAddr,
		info:        info,
		sinkFor:     sinkFor,
		ring:        cache.NewRing(info.SectionSize, cacheMultiplier),
		states:      make(map[int]*decoder.State),
		numSections: numSections,
	}
}

// SetProgress registers a callback invoked once per get_packet cycle.
func (s *Session) SetProgress(fn ProgressFunc) { s.progress = fn }

// NumSections returns the number of sections the negotiated file was
// divided into.
func (s *Session) NumSections() int { return s.numSections }

// Discarded returns the number of packets dropped as stale or
// checksum-invalid so far.
func (s *Session) Discarded() uint64 { return s.discarded }

// PacketsReceived returns the number of packets handed to the decoder
// so far.
func (s *Session) PacketsReceived() uint64 { return s.packetsReceived }

// BytesWritten returns the number of source bytes solved so far.
func (s *Session) BytesWritten() int64 { return s.bytesWritten }

func (s *Session) stateFor(section int) *decoder.State {
	st, ok := s.states[section]
	if !ok {
		st = decoder.New(s.info.SectionSize, s.info.BlkSize, s.sinkFor(section), s.info.SectionSize)
		s.states[section] = st
	}
	return st
}

func (s *Session) sectionsSolved() int {
	solved := 0
	for i := 0; i < s.numSections; i++ {
		st, ok := s.states[i]
		if ok && st.Complete() {
			solved++
		}
	}
	return solved
}

func (s *Session) reportProgress() {
	if s.progress == nil {
		return
	}
	s.progress(Progress{
		SectionsSolved:   s.sectionsSolved(),
		TotalSections:    s.numSections,
		BytesWritten:     s.bytesWritten,
		PacketsReceived:  s.packetsReceived,
		PacketsDiscarded: s.discarded,
	})
}
