package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/internal/logging"
)

// ErrDigestMismatch is logged, and the connection closed, when a peer's handshake
// digest disagrees with the server's own root digest and digest
// enforcement is enabled (SPEC_FULL.md supplemented feature 3; spec §9's
// open question, now wired rather than left as a FIXME).
var ErrDigestMismatch = errors.New("fsyncer: handshake digest mismatch")

// Options configures a Server.
type Options struct {
	Engine *fanout.Engine

	// LocalDigest is this server's own root digest, computed once at
	// startup. Compared against every peer's handshake digest unless
	// DontCheck is set.
	LocalDigest uint64
	DontCheck   bool

	// Snapshot, if non-nil, is invoked synchronously whenever a control
	// connection's CORK actually engages the engine's cork state, after it
	// is engaged and before the ack is sent. UNCORK does not invoke it.
	Snapshot *SnapshotCoordinator

	Logger *log.Logger
}

// Server is the Server Front-End (spec §4.4): a TCP listener that reads
// each connection's handshake and either registers it as a replication
// peer or hands it to a control loop.
type Server struct {
	opts Options
	log  *log.Logger
}

// New constructs a Server. opts.Engine must be non-nil.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.New("fsyncer-server")
	}
	return &Server{opts: opts, log: opts.Logger}
}

// Serve accepts connections on l until ctx is done or Accept returns a
// permanent error. Each accepted connection is handled on its own
// goroutine, matching spec §5's "fan-out dispatch runs on whichever
// thread delivered the mutation" model: the accept path never blocks on
// a single connection's handshake.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn reads the connection's handshake and routes it. A failed or
// rejected handshake closes the socket; it is never fatal to the server
// (spec §4.4).
func (s *Server) handleConn(conn net.Conn) {
	buf := make([]byte, fsproto.HandshakeSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		s.log.Printf("handshake read from %s failed: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	hs, err := fsproto.DecodeHandshake(buf)
	if err != nil {
		s.log.Printf("malformed handshake from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	switch hs.Mode {
	case fsproto.ModeControl:
		s.runControlLoop(conn)
	case fsproto.ModeAsync, fsproto.ModeSync:
		s.registerPeer(conn, hs)
	default:
		s.log.Printf("unknown handshake mode %d from %s", hs.Mode, conn.RemoteAddr())
		conn.Close()
	}
}

func (s *Server) registerPeer(conn net.Conn, hs fsproto.Handshake) {
	if !s.opts.DontCheck && hs.Digest != s.opts.LocalDigest {
		s.log.Printf("rejecting %s: %v (got %#x, want %#x)", conn.RemoteAddr(), ErrDigestMismatch, hs.Digest, s.opts.LocalDigest)
		conn.Close()
		return
	}

	if hs.Mode == fsproto.ModeSync {
		setLowLatency(conn)
	}
	setSendBuffer(conn)

	s.opts.Engine.AddPeer(hs.Mode, hs.Digest, conn)
}

// setLowLatency disables Nagle-style write coalescing on conn, matching
// spec §4.4/§4.7's requirement that SYNC peers (server and client side
// alike) not accumulate a delay waiting to batch small frames together.
func setLowLatency(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
}

// setSendBuffer requests a generous send-buffer size on the peer socket
// (spec §4.4), so a burst of fan-out frames doesn't immediately block
// the broadcasting goroutine on a slow peer.
func setSendBuffer(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetWriteBuffer(1 << 20)
		tc.SetReadBuffer(1 << 20)
	}
}
