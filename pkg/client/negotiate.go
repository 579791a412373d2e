// Package client implements the fountain protocol client: negotiating
// file metadata over INFO_REQUEST/INFO_REPLY, then driving the cache
// ring and decoder to completion per §4.8's control loop.
package client

import (
	"errors"
	"net"
	"time"

	"github.com/gofountain/fountain/pkg/wire"
)

// ErrBadInfoReply is returned when the server's INFO_REPLY is not a
// valid reply to the most recent INFO_REQUEST.
var ErrBadInfoReply = errors.New("client: server sent an invalid INFO_REPLY")

// Negotiate sends INFO_REQUEST to addr over conn and waits up to
// timeout for a matching INFO_REPLY, per §4.6. It is also the
// entry point for the standalone `-info-only` probe subcommand (§10).
func Negotiate(conn *net.UDPConn, addr *net.UDPAddr, timeout time.Duration) (wire.FileInfo, error) {
	if _, err := conn.WriteToUDP(wire.EncodeInfoRequest(), addr); err != nil {
		return wire.FileInfo{}, err
	}

	buf := make([]byte, 2048)
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return wire.FileInfo{}, err
	}
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return wire.FileInfo{}, err
		}
		magic, err := wire.IdentifyMagic(buf[:n])
		if err != nil || magic != wire.MagicInfoReply {
			continue // stray datagram from a prior session; keep waiting
		}
		info, err := wire.DecodeInfoReply(buf[:n])
		if err != nil {
			return wire.FileInfo{}, ErrBadInfoReply
		}
		return info, nil
	}
}
