package client

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"golang.org/x/sys/unix"

	"github.com/fsyncer/fsyncer/fsadapter"
	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/internal/logging"
)

// ErrFatalFrame marks the three conditions spec §4.8 treats as fatal to a
// replay connection: malformed frame, short read on a closing transport,
// or an unrecognised op kind.
var ErrFatalFrame = errors.New("fsyncer: fatal frame error")

// Options configures a Client.
type Options struct {
	Mode   fsproto.PeerMode
	Digest uint64
	Dest   string
	Logger *log.Logger
}

// Client is the Client Replay Engine (spec §4.7).
type Client struct {
	opts    Options
	adapter *fsadapter.Adapter
	log     *log.Logger
}

// New constructs a Client whose replayed operations are rewritten against
// opts.Dest.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logging.New("fsyncer-client")
	}
	return &Client{
		opts:    opts,
		adapter: fsadapter.New(opts.Dest),
		log:     opts.Logger,
	}
}

// Connect dials addr, performs the handshake, and tunes the socket for
// SYNC mode if configured, mirroring the server's own tuning (spec §4.7).
func (c *Client) Connect(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetReadBuffer(1 << 20)
		if c.opts.Mode == fsproto.ModeSync {
			tc.SetNoDelay(true)
		}
	}

	hs := fsproto.Handshake{Mode: c.opts.Mode, Digest: c.opts.Digest}
	if _, err := conn.Write(hs.Encode()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending handshake: %w", err)
	}
	return conn, nil
}

// Run drives the frame loop on conn until a fatal error or the connection
// closes cleanly (io.EOF between frames is not an error). It never
// returns on a per-operation failure; see spec §4.8's partial-failure
// policy.
func (c *Client) Run(conn net.Conn) error {
	for {
		tid, op, err := c.readFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		retcode := c.apply(op)

		if c.opts.Mode == fsproto.ModeSync {
			ack := fsproto.Ack{Retcode: retcode}
			if _, err := conn.Write(ack.Encode()); err != nil {
				return fmt.Errorf("writing ack: %w", err)
			}
		} else if retcode < 0 {
			c.log.Printf("tid %d: %s returned %d", tid, op.Kind(), retcode)
		}
	}
}

// readFrame reads exactly one frame: a FrameHeaderSize header, then the
// declared payload length, with io.ReadFull enforcing strict short-read
// retry (spec §4.7 step 2).
func (c *Client) readFrame(conn net.Conn) (uint64, fsproto.Op, error) {
	hdr := make([]byte, fsproto.FrameHeaderSize)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("%w: reading frame header: %v", ErrFatalFrame, err)
	}

	length, kind, tid, err := fsproto.DecodeHeader(hdr)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrFatalFrame, err)
	}

	payload := make([]byte, int(length)-fsproto.FrameHeaderSize)
	if len(payload) > 0 {
		if _, err := io.ReadFull(conn, payload); err != nil {
			return 0, nil, fmt.Errorf("%w: reading payload: %v", ErrFatalFrame, err)
		}
	}

	op, err := fsproto.DecodePayload(kind, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrFatalFrame, err)
	}
	return tid, op, nil
}

// apply rewrites op's path(s) against the destination root and invokes
// the matching Local FS Adapter operation, returning its retcode.
func (c *Client) apply(op fsproto.Op) int32 {
	a := c.adapter

	switch o := op.(type) {
	case *fsproto.MknodOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.Mknod(path, o.Mode, o.Rdev)

	case *fsproto.MkdirOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.Mkdir(path, o.Mode)

	case *fsproto.UnlinkOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.Unlink(path)

	case *fsproto.RmdirOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.Rmdir(path)

	case *fsproto.SymlinkOp:
		// From is the link's target text, stored verbatim; only the link's
		// own location is resolved against the destination root.
		to, rc := a.Resolve(o.To)
		if rc != 0 {
			return rc
		}
		return a.Symlink(o.From, to)

	case *fsproto.RenameOp:
		from, rc := a.Resolve(o.From)
		if rc != 0 {
			return rc
		}
		to, rc := a.Resolve(o.To)
		if rc != 0 {
			return rc
		}
		return a.Rename(from, to, o.Flags)

	case *fsproto.LinkOp:
		from, rc := a.Resolve(o.From)
		if rc != 0 {
			return rc
		}
		to, rc := a.Resolve(o.To)
		if rc != 0 {
			return rc
		}
		return a.Link(from, to)

	case *fsproto.ChmodOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.ChmodPath(path, o.Mode)

	case *fsproto.ChownOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.ChownPath(path, o.UID, o.GID)

	case *fsproto.TruncateOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.TruncatePath(path, o.Size)

	case *fsproto.WriteOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.WritePath(path, o.Data, o.Offset)

	case *fsproto.CreateOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		fd, retcode := a.Create(path, o.Mode, o.Flags)
		if retcode == 0 {
			unix.Close(int(fd))
		}
		return retcode

	case *fsproto.UtimensOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.UtimensPath(path, o.AtimeSec, o.AtimeNsec, o.MtimeSec, o.MtimeNsec)

	case *fsproto.FallocateOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.FallocatePath(path, o.Mode, o.Offset, o.Length)

	case *fsproto.SetxattrOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.SetxattrPath(path, o.Name, o.Value, o.Flags)

	case *fsproto.RemovexattrOp:
		path, rc := a.Resolve(o.Path)
		if rc != 0 {
			return rc
		}
		return a.RemovexattrPath(path, o.Name)

	case *fsproto.NopOp:
		return 0

	default:
		return -1
	}
}
