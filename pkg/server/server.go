// Package server implements the stateless fountain server loop of
// §4.7: a single-threaded UDP receive loop that answers INFO_REQUEST
// with file metadata and WAIT with a burst of freshly encoded packets.
//
// The Server type encapsulates the socket, source file handle, and
// stats counters that the original C server kept as process-wide
// globals, per the DESIGN NOTES "Global state" redesign: its lifetime
// bounds that state instead, with explicit teardown via Close.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gofountain/fountain/pkg/encoder"
	"github.com/gofountain/fountain/pkg/prng"
	"github.com/gofountain/fountain/pkg/sink"
	"github.com/gofountain/fountain/pkg/wire"
)

// maxDatagramSize bounds the receive buffer; WAIT messages are the
// largest inbound datagram (6 + 4*NUM_CACHES bytes), well under this.
const maxDatagramSize = 2048

// Server answers fountain protocol requests for one pinned source file.
type Server struct {
	conn        *net.UDPConn
	file        io.ReaderAt
	filesize    int64
	filename    string
	sectionSize int
	blkSize     int
	latency     time.Duration
	sampler     *prng.DegreeSampler

	statsMu        sync.Mutex
	packetsSent    map[uint16]uint64
	encodeFailures map[uint16]uint64
}

// New builds a Server bound to conn, serving file (filesize bytes,
// reported to clients as filename) divided into sections of sectionSize
// blocks of blkSize bytes. latency, if non-zero, is slept before every
// WAIT burst reply (the teacher's -L/--latency debug knob, §4.7).
func New(conn *net.UDPConn, file io.ReaderAt, filesize int64, filename string, sectionSize, blkSize int, latency time.Duration) *Server {
	return &Server{
		conn:           conn,
		file:           file,
		filesize:       filesize,
		filename:       filename,
		sectionSize:    sectionSize,
		blkSize:        blkSize,
		latency:        latency,
		sampler:        prng.NewDegreeSampler(time.Now().UnixNano()),
		packetsSent:    make(map[uint16]uint64),
		encodeFailures: make(map[uint16]uint64),
	}
}

// Serve blocks, answering datagrams until ctx is cancelled or the
// connection is closed. It returns nil on a clean cancellation.
func (s *Server) Serve(ctx context.Context) error {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warnf("[SERVER] read failed: %v", err)
			continue
		}
		s.handleDatagram(buf[:n], addr)
	}
}

func (s *Server) handleDatagram(raw []byte, addr *net.UDPAddr) {
	magic, err := wire.IdentifyMagic(raw)
	if err != nil {
		log.Infof("[SERVER][RX] dropping undersized datagram from %v", addr)
		return
	}
	switch magic {
	case wire.MagicInfoRequest:
		s.handleInfoRequest(addr)
	case wire.MagicWait:
		s.handleWait(raw, addr)
	default:
		log.Infof("[SERVER][RX] dropping datagram with unknown magic %x from %v", magic, addr)
	}
}

func (s *Server) handleInfoRequest(addr *net.UDPAddr) {
	log.Debugf("[SERVER][RX] INFO_REQUEST from %v", addr)
	reply := wire.EncodeInfoReply(wire.FileInfo{
		SectionSize: s.sectionSize,
		BlkSize:     s.blkSize,
		Filesize:    int32(s.filesize),
		Filename:    s.filename,
	})
	if _, err := s.conn.WriteToUDP(reply, addr); err != nil {
		log.Warnf("[SERVER][TX] failed to send INFO_REPLY to %v: %v", addr, err)
	}
}

func (s *Server) handleWait(raw []byte, addr *net.UDPAddr) {
	sections, err := wire.DecodeWait(raw)
	if err != nil {
		log.Infof("[SERVER][RX] dropping malformed WAIT from %v: %v", addr, err)
		return
	}
	log.WithFields(log.Fields{
		"peer":     addr.String(),
		"sections": sections,
	}).Debug("[SERVER][RX] WAIT")

	if s.latency > 0 {
		time.Sleep(s.latency)
	}

	for _, sc := range sections {
		s.emitBurst(sc.Section, int(sc.Capacity), addr)
	}
}

func (s *Server) emitBurst(section uint16, capacity int, addr *net.UDPAddr) {
	src := sink.NewFileSink(s.file, nil, int(section), s.sectionSize, s.blkSize)
	enc := encoder.New(src, section, s.sectionSize, s.blkSize, s.sampler)

	for i := 0; i < capacity; i++ {
		p, err := enc.Next()
		if err != nil {
			s.recordEncodeFailure(section)
			log.Debugf("[SERVER] encode failed for section %d: %v", section, err)
			continue
		}
		frame := wire.EncodeFrame(p)
		if _, err := s.conn.WriteToUDP(frame, addr); err != nil {
			log.Warnf("[SERVER][TX] send failed for section %d to %v: %v", section, addr, err)
			continue
		}
		s.recordPacketSent(section)
	}
}

func (s *Server) recordPacketSent(section uint16) {
	s.statsMu.Lock()
	s.packetsSent[section]++
	s.statsMu.Unlock()
}

func (s *Server) recordEncodeFailure(section uint16) {
	s.statsMu.Lock()
	s.encodeFailures[section]++
	s.statsMu.Unlock()
}

// Stats returns a snapshot of the emission counters, each summed over all
// sections ("packets_sent", "encode_failures"), mirroring
// the teacher's CO_ERROR_* counters exposed by bus_manager.go (§10).
func (s *Server) Stats() map[string]uint64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	out := make(map[string]uint64, len(s.packetsSent)+len(s.encodeFailures))
	var totalSent, totalFailed uint64
	for _, n := range s.packetsSent {
		totalSent += n
	}
	for _, n := range s.encodeFailures {
		totalFailed += n
	}
	out["packets_sent"] = totalSent
	out["encode_failures"] = totalFailed
	return out
}

// Close releases the server's socket.
func (s *Server) Close() error {
	return s.conn.Close()
}
