package fanout

import (
	"io"
	"net"
	"time"

	"github.com/fsyncer/fsyncer/fsproto"
)

// Transport is the byte-stream connection a Peer fans frames over. A
// net.Conn satisfies it; tests substitute net.Pipe() ends. A fake must
// implement SetReadDeadline as well as io.ReadWriteCloser.
type Transport interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Peer is one live connection known to the Fan-out Engine (spec §3). The
// immutable fields are set at construction; Mutable fields are only ever
// touched while the Engine's mutex is held.
type Peer struct {
	// ID is a process-unique handle, assigned by the Engine at
	// registration. Using a handle instead of passing *Peer pointers
	// across removal boundaries avoids the iterate-while-removing hazard
	// spec §9 calls out in the source's prev-pointer linked list.
	ID uint64

	Mode      fsproto.PeerMode
	Digest    uint64
	Transport Transport

	// LastError is the most recent transport error observed for this
	// peer, if any. Set only by the Engine, under its mutex.
	LastError error
}

func writeAll(t Transport, buf []byte) error {
	for len(buf) > 0 {
		n, err := t.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func readFull(t Transport, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(t, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readAck reads one Ack frame within deadline. deadline of the zero Time
// disables the read timeout.
func readAck(t Transport, deadline time.Time) (fsproto.Ack, error) {
	if err := t.SetReadDeadline(deadline); err != nil {
		return fsproto.Ack{}, err
	}
	buf, err := readFull(t, fsproto.AckSize)
	if err != nil {
		return fsproto.Ack{}, err
	}
	return fsproto.DecodeAck(buf)
}

var _ Transport = (*net.TCPConn)(nil)
