package fanout_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsproto"
)

// pipePair returns two connected in-memory Transports, server and client
// end, backed by net.Pipe so tests don't touch a real socket.
func pipePair() (net.Conn, net.Conn) {
	return net.Pipe()
}

func readFrame(t *testing.T, c net.Conn) (uint64, fsproto.Op) {
	t.Helper()
	hdr := make([]byte, fsproto.FrameHeaderSize)
	if _, err := readExact(c, hdr); err != nil {
		t.Fatalf("read header: %v", err)
	}
	length, kind, tid, err := fsproto.DecodeHeader(hdr)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	payload := make([]byte, int(length)-fsproto.FrameHeaderSize)
	if len(payload) > 0 {
		if _, err := readExact(c, payload); err != nil {
			t.Fatalf("read payload: %v", err)
		}
	}
	op, err := fsproto.DecodePayload(kind, payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return tid, op
}

func readExact(c net.Conn, buf []byte) (int, error) {
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

func TestBroadcastDeliversToAsyncPeerInOrder(t *testing.T) {
	e := fanout.New(fanout.Options{})

	serverSide, clientSide := pipePair()
	defer serverSide.Close()
	defer clientSide.Close()

	e.AddPeer(fsproto.ModeAsync, 0, serverSide)

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			_, op := readFrame(t, clientSide)
			got = append(got, op.Kind().String())
		}
	}()

	e.Broadcast(1, &fsproto.MkdirOp{Path: "a", Mode: 0o755})
	e.Broadcast(2, &fsproto.UnlinkOp{Path: "a/b"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frames")
	}

	if len(got) != 2 || got[0] != fsproto.OpMkdir.String() || got[1] != fsproto.OpUnlink.String() {
		t.Fatalf("unexpected delivery order: %v", got)
	}
}

func TestBroadcastBlocksOnSyncAck(t *testing.T) {
	e := fanout.New(fanout.Options{AckTimeout: time.Second})

	serverSide, clientSide := pipePair()
	defer serverSide.Close()
	defer clientSide.Close()

	e.AddPeer(fsproto.ModeSync, 0, serverSide)

	ackSent := make(chan struct{})
	go func() {
		readFrame(t, clientSide)
		time.Sleep(20 * time.Millisecond)
		close(ackSent)
		clientSide.Write(fsproto.Ack{Retcode: 0}.Encode())
	}()

	start := time.Now()
	e.Broadcast(1, &fsproto.RmdirOp{Path: "a"})
	elapsed := time.Since(start)

	select {
	case <-ackSent:
	default:
		t.Fatal("Broadcast returned before the ack was even sent")
	}
	if elapsed < 15*time.Millisecond {
		t.Fatalf("Broadcast did not block for the ack: elapsed %s", elapsed)
	}
}

func TestBroadcastDropsPeerOnAckTimeout(t *testing.T) {
	e := fanout.New(fanout.Options{AckTimeout: 10 * time.Millisecond})

	serverSide, clientSide := pipePair()
	defer serverSide.Close()
	defer clientSide.Close()

	var mu sync.Mutex
	var reported error
	e.OnPeerError = func(pe fanout.PeerError) {
		mu.Lock()
		reported = pe.Err
		mu.Unlock()
	}

	e.AddPeer(fsproto.ModeSync, 0, serverSide)

	drain := make(chan struct{})
	go func() {
		defer close(drain)
		readFrame(t, clientSide)
		// never sends an Ack
	}()

	e.Broadcast(1, &fsproto.RmdirOp{Path: "a"})
	<-drain

	if e.PeerCount() != 0 {
		t.Fatalf("expected peer to be dropped after ack timeout, count=%d", e.PeerCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if reported == nil {
		t.Fatal("expected OnPeerError to be invoked")
	}
}

func TestCorkBlocksBroadcastUntilUncork(t *testing.T) {
	e := fanout.New(fanout.Options{})

	serverSide, clientSide := pipePair()
	defer serverSide.Close()
	defer clientSide.Close()
	e.AddPeer(fsproto.ModeAsync, 0, serverSide)
	go readFrame(t, clientSide)

	e.Cork()

	broadcastReturned := make(chan struct{})
	go func() {
		e.Broadcast(1, &fsproto.RmdirOp{Path: "a"})
		close(broadcastReturned)
	}()

	select {
	case <-broadcastReturned:
		t.Fatal("Broadcast returned while corked")
	case <-time.After(30 * time.Millisecond):
	}

	e.Uncork()

	select {
	case <-broadcastReturned:
	case <-time.After(time.Second):
		t.Fatal("Broadcast did not return after Uncork")
	}
}

func TestRemovePeerIsSafeDuringBroadcast(t *testing.T) {
	e := fanout.New(fanout.Options{})

	s1, c1 := pipePair()
	s2, c2 := pipePair()
	defer s1.Close()
	defer c1.Close()
	defer s2.Close()
	defer c2.Close()

	p1 := e.AddPeer(fsproto.ModeAsync, 0, s1)
	e.AddPeer(fsproto.ModeAsync, 0, s2)

	go func() {
		readFrame(t, c1)
		readFrame(t, c2)
	}()
	e.Broadcast(1, &fsproto.RmdirOp{Path: "a"})

	e.RemovePeer(p1.ID)
	if e.PeerCount() != 1 {
		t.Fatalf("expected one peer left, got %d", e.PeerCount())
	}

	go readFrame(t, c2)
	e.Broadcast(2, &fsproto.RmdirOp{Path: "b"})
}
