package fsproto

import (
	"errors"
	"fmt"

	"github.com/fsyncer/fsyncer/internal/wire"
)

// ErrMalformedFrame is returned by Decode when a frame's payload cannot be
// fully consumed per its declared length (spec §4.1). The caller must abort
// the connection that produced it; sibling connections are unaffected.
var ErrMalformedFrame = errors.New("fsproto: malformed frame")

// UnknownOpKindError is returned by Decode when the frame header names an op
// kind this codec doesn't recognize. Spec §9 weakens the source's
// process-terminating behavior to "abort the connection" for exactly this
// reason: a single corrupted or newer-version frame shouldn't take down a
// replica.
type UnknownOpKindError struct {
	Kind OpKind
}

func (e *UnknownOpKindError) Error() string {
	return fmt.Sprintf("fsproto: unknown op kind %d", uint32(e.Kind))
}

// EncodeFrame allocates a buffer of the exact size required for op (header
// plus payload) and writes the frame header followed by op's payload in the
// canonical field order from spec §6.
func EncodeFrame(tid uint64, op Op) []byte {
	size := FrameHeaderSize + op.payloadSize()

	w := wire.NewWriter(size)
	w.PutUint32(uint32(size))
	w.PutUint32(uint32(op.Kind()))
	w.PutUint64(tid)
	op.encode(w)

	return w.Bytes()
}

// DecodeHeader reads the 16-byte frame header (length, kind, tid) from buf.
// buf must be at least FrameHeaderSize bytes; callers read exactly that many
// bytes from the stream before calling DecodeHeader (spec §4.7 step 1). A
// declared length below FrameHeaderSize reports ErrMalformedFrame.
func DecodeHeader(buf []byte) (length uint32, kind OpKind, tid uint64, err error) {
	r := wire.NewReader(buf)
	length = r.Uint32()
	kind = OpKind(r.Uint32())
	tid = r.Uint64()
	if r.Err() != nil || length < FrameHeaderSize {
		err = ErrMalformedFrame
	}
	return
}

// DecodePayload decodes the payload of an already-identified frame. buf must
// contain exactly length-FrameHeaderSize bytes (the decoder never reads
// beyond what it's given, and any short read reports ErrMalformedFrame per
// spec §4.1).
func DecodePayload(kind OpKind, buf []byte) (Op, error) {
	r := wire.NewReader(buf)

	var op Op
	switch kind {
	case OpMknod:
		o := &MknodOp{}
		o.Path = r.String()
		o.Mode = r.Uint32()
		o.Rdev = r.Uint32()
		op = o
	case OpMkdir:
		o := &MkdirOp{}
		o.Path = r.String()
		o.Mode = r.Uint32()
		op = o
	case OpUnlink:
		o := &UnlinkOp{Path: r.String()}
		op = o
	case OpRmdir:
		o := &RmdirOp{Path: r.String()}
		op = o
	case OpSymlink:
		o := &SymlinkOp{}
		o.From = r.String()
		o.To = r.String()
		op = o
	case OpRename:
		o := &RenameOp{}
		o.From = r.String()
		o.To = r.String()
		o.Flags = r.Uint32()
		op = o
	case OpLink:
		o := &LinkOp{}
		o.From = r.String()
		o.To = r.String()
		op = o
	case OpChmod:
		o := &ChmodOp{}
		o.Path = r.String()
		o.Mode = r.Uint32()
		op = o
	case OpChown:
		o := &ChownOp{}
		o.Path = r.String()
		o.UID = r.Uint32()
		o.GID = r.Uint32()
		op = o
	case OpTruncate:
		o := &TruncateOp{}
		o.Path = r.String()
		o.Size = r.Int64()
		op = o
	case OpWrite:
		o := &WriteOp{}
		o.Path = r.String()
		data := r.Opaque()
		if len(data) > 0 {
			o.Data = append([]byte(nil), data...)
		} else if r.Err() == nil {
			o.Data = []byte{}
		}
		o.Offset = r.Int64()
		op = o
	case OpCreate:
		o := &CreateOp{}
		o.Path = r.String()
		o.Mode = r.Uint32()
		o.Flags = r.Uint32()
		op = o
	case OpUtimens:
		o := &UtimensOp{}
		o.Path = r.String()
		o.AtimeSec = r.Int64()
		o.AtimeNsec = r.Int64()
		o.MtimeSec = r.Int64()
		o.MtimeNsec = r.Int64()
		op = o
	case OpFallocate:
		o := &FallocateOp{}
		o.Path = r.String()
		o.Mode = r.Int32()
		o.Offset = r.Int64()
		o.Length = r.Int64()
		op = o
	case OpSetxattr:
		o := &SetxattrOp{}
		o.Path = r.String()
		o.Name = r.String()
		value := r.Opaque()
		if len(value) > 0 {
			o.Value = append([]byte(nil), value...)
		} else if r.Err() == nil {
			o.Value = []byte{}
		}
		o.Flags = r.Int32()
		op = o
	case OpRemovexattr:
		o := &RemovexattrOp{}
		o.Path = r.String()
		o.Name = r.String()
		op = o
	case OpNop:
		op = &NopOp{}
	default:
		return nil, &UnknownOpKindError{Kind: kind}
	}

	if r.Err() != nil || r.Remaining() != 0 {
		return nil, ErrMalformedFrame
	}
	return op, nil
}

// DecodeFrame decodes a complete frame (header + payload) from buf, which
// must be exactly the length declared by the header. It is a convenience
// wrapper around DecodeHeader + DecodePayload for callers (mainly tests)
// that already have the whole frame in hand.
func DecodeFrame(buf []byte) (tid uint64, op Op, err error) {
	if len(buf) < FrameHeaderSize {
		return 0, nil, ErrMalformedFrame
	}
	length, kind, tid, err := DecodeHeader(buf[:FrameHeaderSize])
	if err != nil {
		return 0, nil, err
	}
	if int(length) != len(buf) {
		return 0, nil, ErrMalformedFrame
	}
	op, err = DecodePayload(kind, buf[FrameHeaderSize:])
	return tid, op, err
}
