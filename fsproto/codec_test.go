package fsproto_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/fsyncer/fsyncer/fsproto"
)

func roundTrip(t *testing.T, tid uint64, op fsproto.Op) {
	t.Helper()

	encoded := fsproto.EncodeFrame(tid, op)

	length, kind, gotTID, err := fsproto.DecodeHeader(encoded[:fsproto.FrameHeaderSize])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if int(length) != len(encoded) {
		t.Fatalf("header length %d != encoded length %d", length, len(encoded))
	}
	if kind != op.Kind() {
		t.Fatalf("header kind %v != op kind %v", kind, op.Kind())
	}
	if gotTID != tid {
		t.Fatalf("tid %d != %d", gotTID, tid)
	}

	decoded, err := fsproto.DecodePayload(kind, encoded[fsproto.FrameHeaderSize:])
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if !reflect.DeepEqual(decoded, op) {
		t.Fatalf("decoded %+v != original %+v", decoded, op)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	cases := []struct {
		name string
		op   fsproto.Op
	}{
		{"mknod", &fsproto.MknodOp{Path: "/a/fifo", Mode: 0o644, Rdev: 0}},
		{"mkdir", &fsproto.MkdirOp{Path: "/a", Mode: 0o755}},
		{"unlink", &fsproto.UnlinkOp{Path: "/a/b"}},
		{"rmdir", &fsproto.RmdirOp{Path: "/a"}},
		{"symlink", &fsproto.SymlinkOp{From: "../target", To: "/link"}},
		{"rename", &fsproto.RenameOp{From: "/a", To: "/b", Flags: 0}},
		{"rename-flags", &fsproto.RenameOp{From: "/a", To: "/b", Flags: 1}},
		{"link", &fsproto.LinkOp{From: "/a", To: "/b"}},
		{"chmod", &fsproto.ChmodOp{Path: "/link", Mode: 0o600}},
		{"chown", &fsproto.ChownOp{Path: "/a", UID: 1000, GID: 1000}},
		{"truncate", &fsproto.TruncateOp{Path: "/a/b", Size: 3}},
		{"write", &fsproto.WriteOp{Path: "/a/b", Data: []byte("hello"), Offset: 0}},
		{"write-empty", &fsproto.WriteOp{Path: "/a/b", Data: []byte{}, Offset: 1 << 40}},
		{"create", &fsproto.CreateOp{Path: "/a/b", Mode: 0o644, Flags: 0x241}},
		{"utimens", &fsproto.UtimensOp{Path: "/a", AtimeSec: 10, AtimeNsec: 20, MtimeSec: 30, MtimeNsec: 40}},
		{"fallocate", &fsproto.FallocateOp{Path: "/a", Mode: 0, Offset: 0, Length: 4096}},
		{"setxattr", &fsproto.SetxattrOp{Path: "/a", Name: "user.x", Value: []byte{1, 2, 3}, Flags: 0}},
		{"setxattr-empty", &fsproto.SetxattrOp{Path: "/a", Name: "user.x", Value: []byte{}, Flags: 0}},
		{"removexattr", &fsproto.RemovexattrOp{Path: "/a", Name: "user.x"}},
		{"nop", &fsproto.NopOp{}},
	}

	for i, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			roundTrip(t, uint64(i), c.op)
		})
	}
}

func TestFramingConcatenation(t *testing.T) {
	ops := []fsproto.Op{
		&fsproto.MkdirOp{Path: "/a", Mode: 0o755},
		&fsproto.CreateOp{Path: "/a/b", Mode: 0o644, Flags: 1},
		&fsproto.WriteOp{Path: "/a/b", Data: []byte("hello"), Offset: 0},
		&fsproto.TruncateOp{Path: "/a/b", Size: 3},
	}

	var stream bytes.Buffer
	for i, op := range ops {
		stream.Write(fsproto.EncodeFrame(uint64(i), op))
	}

	buf := stream.Bytes()
	var got []fsproto.Op
	for len(buf) > 0 {
		if len(buf) < fsproto.FrameHeaderSize {
			t.Fatalf("leftover bytes too short for a header: %d", len(buf))
		}
		length, kind, _, err := fsproto.DecodeHeader(buf[:fsproto.FrameHeaderSize])
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		frame := buf[:length]
		op, err := fsproto.DecodePayload(kind, frame[fsproto.FrameHeaderSize:])
		if err != nil {
			t.Fatalf("DecodePayload: %v", err)
		}
		got = append(got, op)
		buf = buf[length:]
	}

	if len(got) != len(ops) {
		t.Fatalf("got %d frames, want %d", len(got), len(ops))
	}
	for i := range ops {
		if !reflect.DeepEqual(got[i], ops[i]) {
			t.Fatalf("frame %d: got %+v, want %+v", i, got[i], ops[i])
		}
	}
}

func TestDecodeMalformedFrameShortPayload(t *testing.T) {
	op := &fsproto.MkdirOp{Path: "/a", Mode: 0o755}
	encoded := fsproto.EncodeFrame(0, op)

	// Truncate the payload without fixing up the length header: the decoder
	// must report a malformed frame rather than reading past the slice.
	truncated := encoded[:len(encoded)-2]

	_, _, err := fsproto.DecodeFrame(truncated[:fsproto.FrameHeaderSize])
	// Header alone decodes fine; the mismatch is caught by DecodeFrame's
	// length check against the slice it was actually given.
	if err == nil {
		t.Fatalf("expected error decoding a header-only slice via DecodeFrame")
	}

	_, err2 := fsproto.DecodePayload(fsproto.OpMkdir, truncated[fsproto.FrameHeaderSize:])
	if err2 != fsproto.ErrMalformedFrame {
		t.Fatalf("got %v, want ErrMalformedFrame", err2)
	}
}

func TestDecodeUnknownOpKind(t *testing.T) {
	_, err := fsproto.DecodePayload(fsproto.OpKind(9999), []byte{})
	var unknown *fsproto.UnknownOpKindError
	if err == nil {
		t.Fatalf("expected error for unknown op kind")
	}
	if !errorsAs(err, &unknown) {
		t.Fatalf("got %v (%T), want *UnknownOpKindError", err, err)
	}
}

func errorsAs(err error, target **fsproto.UnknownOpKindError) bool {
	e, ok := err.(*fsproto.UnknownOpKindError)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestHandshakeCommandAckRoundTrip(t *testing.T) {
	hs := fsproto.Handshake{Mode: fsproto.ModeSync, Digest: 0xdeadbeefcafef00d}
	gotHS, err := fsproto.DecodeHandshake(hs.Encode())
	if err != nil || gotHS != hs {
		t.Fatalf("handshake round trip: got %+v, err %v", gotHS, err)
	}

	cmd := fsproto.Command{Cmd: fsproto.CmdCork}
	gotCmd, err := fsproto.DecodeCommand(cmd.Encode())
	if err != nil || gotCmd != cmd {
		t.Fatalf("command round trip: got %+v, err %v", gotCmd, err)
	}

	ack := fsproto.Ack{Retcode: -22}
	gotAck, err := fsproto.DecodeAck(ack.Encode())
	if err != nil || gotAck != ack {
		t.Fatalf("ack round trip: got %+v, err %v", gotAck, err)
	}
}
