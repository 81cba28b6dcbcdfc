package fsproto

import "github.com/fsyncer/fsyncer/internal/wire"

// HandshakeSize is the fixed wire size of a Handshake: a 4-byte mode enum
// followed by an 8-byte destination digest (spec §6).
const HandshakeSize = 4 + 8

// Handshake is exchanged once, client to server, at connection setup. It
// carries no length prefix; its size is fixed.
type Handshake struct {
	Mode   PeerMode
	Digest uint64
}

// Encode returns the fixed 12-byte wire encoding of h.
func (h Handshake) Encode() []byte {
	w := wire.NewWriter(HandshakeSize)
	w.PutUint32(uint32(h.Mode))
	w.PutUint64(h.Digest)
	return w.Bytes()
}

// DecodeHandshake reads a Handshake from exactly HandshakeSize bytes.
func DecodeHandshake(buf []byte) (Handshake, error) {
	if len(buf) != HandshakeSize {
		return Handshake{}, ErrMalformedFrame
	}
	r := wire.NewReader(buf)
	h := Handshake{
		Mode:   PeerMode(r.Uint32()),
		Digest: r.Uint64(),
	}
	if r.Err() != nil {
		return Handshake{}, ErrMalformedFrame
	}
	return h, nil
}

// CommandSize is the fixed wire size of a Command frame (spec §6).
const CommandSize = 4

// Command is sent on the control channel, client to server.
type Command struct {
	Cmd ControlCommand
}

// Encode returns the fixed 4-byte wire encoding of c.
func (c Command) Encode() []byte {
	w := wire.NewWriter(CommandSize)
	w.PutUint32(uint32(c.Cmd))
	return w.Bytes()
}

// DecodeCommand reads a Command from exactly CommandSize bytes.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) != CommandSize {
		return Command{}, ErrMalformedFrame
	}
	r := wire.NewReader(buf)
	c := Command{Cmd: ControlCommand(r.Uint32())}
	if r.Err() != nil {
		return Command{}, ErrMalformedFrame
	}
	return c, nil
}

// AckSize is the fixed wire size of an Ack frame (spec §6).
const AckSize = 4

// Ack carries a signed retcode: a data-channel SYNC peer's reply to an
// operation frame, or the server's reply to a control command.
type Ack struct {
	Retcode int32
}

// Encode returns the fixed 4-byte wire encoding of a.
func (a Ack) Encode() []byte {
	w := wire.NewWriter(AckSize)
	w.PutInt32(a.Retcode)
	return w.Bytes()
}

// DecodeAck reads an Ack from exactly AckSize bytes.
func DecodeAck(buf []byte) (Ack, error) {
	if len(buf) != AckSize {
		return Ack{}, ErrMalformedFrame
	}
	r := wire.NewReader(buf)
	a := Ack{Retcode: r.Int32()}
	if r.Err() != nil {
		return Ack{}, ErrMalformedFrame
	}
	return a, nil
}
