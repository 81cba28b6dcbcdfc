// Package wire provides a small growable byte buffer used to build and
// consume fsyncer's wire frames without per-field allocation.
//
// The shape is adapted from github.com/jacobsa/fuse's internal/buffer
// package: a single contiguous slice that callers grow into and append to,
// here generalized from a fixed fusekernel.OutHeader-prefixed message to an
// arbitrary big-endian frame.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned by Reader methods when the requested read would
// run past the end of the buffer. The wire codec treats this as a malformed
// frame (spec §4.1).
var ErrShortBuffer = errors.New("wire: short buffer")

// Writer accumulates an outgoing frame. The zero value is not usable; use
// NewWriter.
type Writer struct {
	buf []byte
}

// NewWriter allocates a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated contents.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutUint32 appends a big-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint64 appends a big-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutInt32 appends a big-endian signed 32-bit value.
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

// PutInt64 appends a big-endian signed 64-bit value.
func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }

// PutString appends s followed by a NUL terminator.
func (w *Writer) PutString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// PutOpaque appends a 4-byte big-endian length prefix followed by data.
func (w *Writer) PutOpaque(data []byte) {
	w.PutUint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
}

// StringSize returns the encoded size of s as a String primitive.
func StringSize(s string) int { return len(s) + 1 }

// OpaqueSize returns the encoded size of an Opaque primitive carrying n bytes.
func OpaqueSize(n int) int { return 4 + n }

// Reader consumes a frame buffer field by field. Opaque returns a view into
// the buffer; String copies its bytes into a new Go string. Any read
// past the end sets err and every subsequent method becomes a no-op,
// matching the decoder contract in spec §4.1 ("any attempt to read past the
// buffer signals malformed frame and aborts the connection").
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = ErrShortBuffer
		return false
	}
	return true
}

// String reads a NUL-terminated string.
func (r *Reader) String() string {
	if r.err != nil {
		return ""
	}
	idx := -1
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.err = ErrShortBuffer
		return ""
	}
	s := string(r.buf[r.pos:idx])
	r.pos = idx + 1
	return s
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// Int32 reads a big-endian signed 32-bit value.
func (r *Reader) Int32() int32 { return int32(r.Uint32()) }

// Int64 reads a big-endian signed 64-bit value.
func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

// Opaque reads a 4-byte length prefix followed by that many bytes, returning
// a slice view into the original buffer (no copy, per the decoder contract).
func (r *Reader) Opaque() []byte {
	n := r.Uint32()
	if !r.need(int(n)) {
		return nil
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b
}

