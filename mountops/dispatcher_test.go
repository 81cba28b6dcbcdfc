package mountops_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsadapter"
	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/mountops"
)

func TestDispatcherMkdirAppliesAndBroadcasts(t *testing.T) {
	root := t.TempDir()
	e := fanout.New(fanout.Options{})
	d := &mountops.Dispatcher{Adapter: fsadapter.New(root), Engine: e}

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()
	e.AddPeer(fsproto.ModeAsync, 0, serverSide)

	recv := make(chan fsproto.Op, 1)
	go func() {
		hdr := make([]byte, fsproto.FrameHeaderSize)
		net.Conn(clientSide).SetReadDeadline(time.Now().Add(time.Second))
		if _, err := readFull(clientSide, hdr); err != nil {
			return
		}
		length, kind, _, err := fsproto.DecodeHeader(hdr)
		if err != nil {
			return
		}
		payload := make([]byte, int(length)-fsproto.FrameHeaderSize)
		if len(payload) > 0 {
			readFull(clientSide, payload)
		}
		op, _ := fsproto.DecodePayload(kind, payload)
		recv <- op
	}()

	resp, err := d.Mkdir(context.Background(), &mountops.MkdirRequest{Path: "/sub", Mode: 0o755})
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if resp.Retcode != 0 {
		t.Fatalf("expected success, got retcode %d", resp.Retcode)
	}

	if _, err := os.Stat(filepath.Join(root, "sub")); err != nil {
		t.Fatalf("expected directory to exist locally: %v", err)
	}

	select {
	case op := <-recv:
		mk, ok := op.(*fsproto.MkdirOp)
		if !ok {
			t.Fatalf("expected MkdirOp, got %T", op)
		}
		if mk.Path != "/sub" {
			t.Fatalf("unexpected broadcast path: %s", mk.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast frame")
	}
}

func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
