package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/server"
)

func startServer(t *testing.T, opts server.Options) (net.Addr, func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := server.New(opts)
	go s.Serve(ctx, l)
	return l.Addr(), func() {
		cancel()
		l.Close()
	}
}

func TestAsyncHandshakeRegistersPeer(t *testing.T) {
	e := fanout.New(fanout.Options{})
	addr, stop := startServer(t, server.Options{Engine: e, DontCheck: true})
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hs := fsproto.Handshake{Mode: fsproto.ModeAsync, Digest: 0}
	if _, err := conn.Write(hs.Encode()); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.PeerCount() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("peer never registered, count=%d", e.PeerCount())
}

func TestDigestMismatchRejectsPeer(t *testing.T) {
	e := fanout.New(fanout.Options{})
	addr, stop := startServer(t, server.Options{Engine: e, LocalDigest: 42, DontCheck: false})
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hs := fsproto.Handshake{Mode: fsproto.ModeAsync, Digest: 99}
	conn.Write(hs.Encode())

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected connection to be closed on digest mismatch")
	}
	if e.PeerCount() != 0 {
		t.Fatalf("expected no peer registered, got %d", e.PeerCount())
	}
}

func TestControlLoopCorkUncork(t *testing.T) {
	e := fanout.New(fanout.Options{})
	addr, stop := startServer(t, server.Options{Engine: e, DontCheck: true})
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hs := fsproto.Handshake{Mode: fsproto.ModeControl}
	conn.Write(hs.Encode())

	conn.Write(fsproto.Command{Cmd: fsproto.CmdCork}.Encode())
	ack := readAck(t, conn)
	if ack.Retcode != 0 {
		t.Fatalf("expected successful cork, got retcode %d", ack.Retcode)
	}
	if !e.Corked() {
		t.Fatal("expected engine to be corked")
	}

	conn.Write(fsproto.Command{Cmd: fsproto.CmdCork}.Encode())
	ack = readAck(t, conn)
	if ack.Retcode != -1 {
		t.Fatalf("expected -1 for redundant cork, got %d", ack.Retcode)
	}

	conn.Write(fsproto.Command{Cmd: fsproto.CmdUncork}.Encode())
	ack = readAck(t, conn)
	if ack.Retcode != 0 {
		t.Fatalf("expected successful uncork, got retcode %d", ack.Retcode)
	}
	if e.Corked() {
		t.Fatal("expected engine to be uncorked")
	}
}

func readAck(t *testing.T, conn net.Conn) fsproto.Ack {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, fsproto.AckSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		if err != nil {
			t.Fatalf("read ack: %v", err)
		}
		n += m
	}
	ack, err := fsproto.DecodeAck(buf)
	if err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return ack
}
