package client_test

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsyncer/fsyncer/client"
	"github.com/fsyncer/fsyncer/fsproto"
)

func TestRunAppliesMkdirAndWrite(t *testing.T) {
	dest := t.TempDir()
	c := client.New(client.Options{Mode: fsproto.ModeAsync, Dest: dest})

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()

	done := make(chan error, 1)
	go func() { done <- c.Run(clientSide) }()

	send := func(tid uint64, op fsproto.Op) {
		if _, err := serverSide.Write(fsproto.EncodeFrame(tid, op)); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}

	send(1, &fsproto.MkdirOp{Path: "/sub", Mode: 0o755})
	send(2, &fsproto.CreateOp{Path: "/sub/f", Mode: 0o644, Flags: uint32(os.O_WRONLY | os.O_CREATE)})
	send(3, &fsproto.WriteOp{Path: "/sub/f", Data: []byte("hi"), Offset: 0})

	time.Sleep(50 * time.Millisecond)
	serverSide.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after transport closed")
	}

	if fi, err := os.Stat(filepath.Join(dest, "sub")); err != nil || !fi.IsDir() {
		t.Fatalf("expected sub directory to exist: %v", err)
	}
	if data, err := os.ReadFile(filepath.Join(dest, "sub", "f")); err != nil || string(data) != "hi" {
		t.Fatalf("expected sub/f to contain %q, got %q (err %v)", "hi", data, err)
	}
}

func TestRunSendsSyncAck(t *testing.T) {
	dest := t.TempDir()
	c := client.New(client.Options{Mode: fsproto.ModeSync, Dest: dest})

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	go c.Run(clientSide)

	serverSide.Write(fsproto.EncodeFrame(1, &fsproto.MkdirOp{Path: "/a", Mode: 0o755}))

	ackBuf := make([]byte, fsproto.AckSize)
	serverSide.SetReadDeadline(time.Now().Add(time.Second))
	n := 0
	for n < len(ackBuf) {
		m, err := serverSide.Read(ackBuf[n:])
		if err != nil {
			t.Fatalf("read ack: %v", err)
		}
		n += m
	}
	ack, err := fsproto.DecodeAck(ackBuf)
	if err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Retcode != 0 {
		t.Fatalf("expected successful mkdir ack, got %d", ack.Retcode)
	}
}

func TestRunIsNotFatalOnOpFailure(t *testing.T) {
	dest := t.TempDir()
	c := client.New(client.Options{Mode: fsproto.ModeSync, Dest: dest})

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	go c.Run(clientSide)

	// unlink of a path that doesn't exist: client-local failure, not fatal
	serverSide.Write(fsproto.EncodeFrame(1, &fsproto.UnlinkOp{Path: "/missing"}))

	ackBuf := make([]byte, fsproto.AckSize)
	serverSide.SetReadDeadline(time.Now().Add(time.Second))
	n := 0
	for n < len(ackBuf) {
		m, err := serverSide.Read(ackBuf[n:])
		if err != nil {
			t.Fatalf("read ack: %v", err)
		}
		n += m
	}
	ack, err := fsproto.DecodeAck(ackBuf)
	if err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Retcode >= 0 {
		t.Fatalf("expected a negative errno for unlinking a missing path, got %d", ack.Retcode)
	}

	// The connection must still be alive: a second, valid op still applies.
	serverSide.Write(fsproto.EncodeFrame(2, &fsproto.MkdirOp{Path: "/still-alive", Mode: 0o755}))
	n = 0
	for n < len(ackBuf) {
		m, err := serverSide.Read(ackBuf[n:])
		if err != nil {
			t.Fatalf("read second ack: %v", err)
		}
		n += m
	}
	ack, err = fsproto.DecodeAck(ackBuf)
	if err != nil {
		t.Fatalf("decode second ack: %v", err)
	}
	if ack.Retcode != 0 {
		t.Fatalf("expected second op to succeed, got %d", ack.Retcode)
	}
}
