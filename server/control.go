package server

import (
	"io"
	"net"

	"github.com/fsyncer/fsyncer/fsproto"
)

// runControlLoop services a single CONTROL-mode connection (spec §4.6):
// reads command frames, applies them to the engine's cork state, and
// replies with an ack frame. The loop exits, closing conn, on any
// transport failure or malformed frame; this never touches data peers.
func (s *Server) runControlLoop(conn net.Conn) {
	defer conn.Close()

	for {
		buf := make([]byte, fsproto.CommandSize)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}

		cmd, err := fsproto.DecodeCommand(buf)
		if err != nil {
			s.log.Printf("malformed command from control peer %s: %v", conn.RemoteAddr(), err)
			return
		}

		retcode := s.applyCommand(cmd)

		ack := fsproto.Ack{Retcode: retcode}
		if _, err := conn.Write(ack.Encode()); err != nil {
			return
		}
	}
}

// applyCommand applies a single control command and returns the ack
// retcode: 0 on success, -1 if the requested transition was already the
// current state (spec §4.5), matching CORK/UNCORK idempotency.
func (s *Server) applyCommand(cmd fsproto.Command) int32 {
	switch cmd.Cmd {
	case fsproto.CmdCork:
		if !s.opts.Engine.Cork() {
			return -1
		}
		if s.opts.Snapshot != nil {
			if err := s.opts.Snapshot.TakeSnapshot(); err != nil {
				s.log.Printf("snapshot on CORK failed: %v", err)
			}
		}
		return 0

	case fsproto.CmdUncork:
		if !s.opts.Engine.Uncork() {
			return -1
		}
		return 0

	default:
		return -1
	}
}
