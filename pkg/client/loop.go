package client

import (
	"context"
	"errors"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gofountain/fountain/pkg/decoder"
	"github.com/gofountain/fountain/pkg/packet"
	"github.com/gofountain/fountain/pkg/wire"
)

const (
	initialWaitTimeout = 10 * time.Millisecond
	maxWaitTimeout     = 15 * time.Second
)

// ErrTransferTimeout is returned when the head cache stays empty past
// maxWaitTimeout, per §5's "Cancellation" and §7's timeout policy.
var ErrTransferTimeout = errors.New("client: transfer timed out waiting for packets")

const maxDatagramSize = 2048

// Run drives the control loop to completion: repeatedly pulling a
// packet for the current section, feeding it to that section's
// decoder, and advancing once the section reports SectionComplete. It
// returns nil once every section is solved.
func (s *Session) Run(ctx context.Context) error {
	section := 0
	for section < s.numSections {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p, ok, err := s.getPacket(section)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTransferTimeout
		}

		state := s.stateFor(section)
		before := state.SolvedCount()
		result, err := decoder.Decode(state, p)
		if err != nil {
			return err
		}
		after := state.SolvedCount()
		s.bytesWritten += int64(after-before) * int64(s.info.BlkSize)
		s.packetsReceived++

		log.Debugf("[CLIENT] section %d: %v (%d/%d blocks solved)", section, result, after, s.info.SectionSize)

		if result == decoder.SectionComplete {
			section++
		}
		s.reportProgress()
	}
	return nil
}

// getPacket implements §4.8's get_packet(section_num, num_sections).
func (s *Session) getPacket(section int) (*packet.Packet, bool, error) {
	discarded := s.ring.PrepareHead(section)
	s.discarded += uint64(discarded)

	if s.ring.HeadEmpty() {
		n := s.ring.AssignForLoad(section, s.numSections)
		if err := s.loadFromNetwork(n); err != nil {
			return nil, false, err
		}
	}
	p, ok := s.ring.PopHead()
	return p, ok, nil
}

// loadFromNetwork implements §4.8's load_from_network(cache_ring, n):
// it sends a WAIT declaring remaining capacity for the first n caches,
// then polls the socket with a doubling timeout, enqueueing every
// checksum-valid frame into the cache ring entry for its section.
func (s *Session) loadFromNetwork(n int) error {
	totalCapacity := 0
	for i := 0; i < n; i++ {
		totalCapacity += s.ring.Cache(i).Remaining()
	}

	sendWait := func() error {
		sections := make([]wire.SectionCapacity, 0, n)
		for i := 0; i < n; i++ {
			c := s.ring.Cache(i)
			sections = append(sections, wire.SectionCapacity{
				Section:  uint16(c.Section()),
				Capacity: uint16(c.Remaining()),
			})
		}
		_, err := s.conn.WriteToUDP(wire.EncodeWait(sections), s.serverAddr)
		return err
	}

	if err := sendWait(); err != nil {
		return err
	}

	timeout := initialWaitTimeout
	buf := make([]byte, maxDatagramSize)

	for iter := 0; iter < totalCapacity; iter++ {
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		nRead, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if !s.ring.HeadEmpty() {
					break
				}
				if timeout*2 >= maxWaitTimeout {
					return ErrTransferTimeout
				}
				timeout *= 2
				if err := sendWait(); err != nil {
					return err
				}
				continue
			}
			log.Warnf("[CLIENT] network read failed: %v", err)
			continue
		}

		p, err := wire.DecodeFrame(buf[:nRead], s.info.SectionSize)
		if err != nil {
			s.discarded++
			continue
		}
		idx := s.ring.FindBySection(int(p.Section))
		if idx < 0 || !s.ring.Cache(idx).Enqueue(p) {
			s.discarded++
			continue
		}
	}

	for i := 0; i < n; i++ {
		s.ring.Cache(i).CompactAndRewind()
	}
	return nil
}
