package fsproto

import "github.com/fsyncer/fsyncer/internal/wire"

// FrameHeaderSize is the fixed byte count of length, kind, and tid at the
// start of every frame (spec §3: "length ≥ 16").
const FrameHeaderSize = 4 + 4 + 8

// Op is implemented by every per-kind payload. Encode and decode are
// symmetric: DecodeFrame(EncodeFrame(tid, op)) reproduces an equal Op.
type Op interface {
	Kind() OpKind
	payloadSize() int
	encode(w *wire.Writer)
}

// MknodOp creates a device, FIFO, or regular file node.
type MknodOp struct {
	Path string
	Mode uint32
	Rdev uint32
}

func (o *MknodOp) Kind() OpKind { return OpMknod }
func (o *MknodOp) payloadSize() int {
	return wire.StringSize(o.Path) + 4 + 4
}
func (o *MknodOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutUint32(o.Mode)
	w.PutUint32(o.Rdev)
}

// MkdirOp creates a directory.
type MkdirOp struct {
	Path string
	Mode uint32
}

func (o *MkdirOp) Kind() OpKind         { return OpMkdir }
func (o *MkdirOp) payloadSize() int     { return wire.StringSize(o.Path) + 4 }
func (o *MkdirOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutUint32(o.Mode)
}

// UnlinkOp removes a non-directory directory entry.
type UnlinkOp struct {
	Path string
}

func (o *UnlinkOp) Kind() OpKind         { return OpUnlink }
func (o *UnlinkOp) payloadSize() int     { return wire.StringSize(o.Path) }
func (o *UnlinkOp) encode(w *wire.Writer) { w.PutString(o.Path) }

// RmdirOp removes an empty directory.
type RmdirOp struct {
	Path string
}

func (o *RmdirOp) Kind() OpKind         { return OpRmdir }
func (o *RmdirOp) payloadSize() int     { return wire.StringSize(o.Path) }
func (o *RmdirOp) encode(w *wire.Writer) { w.PutString(o.Path) }

// SymlinkOp creates a symbolic link named To that points at From.
type SymlinkOp struct {
	From string
	To   string
}

func (o *SymlinkOp) Kind() OpKind { return OpSymlink }
func (o *SymlinkOp) payloadSize() int {
	return wire.StringSize(o.From) + wire.StringSize(o.To)
}
func (o *SymlinkOp) encode(w *wire.Writer) {
	w.PutString(o.From)
	w.PutString(o.To)
}

// RenameOp renames From to To. Flags must be 0 (spec §4.2); a non-zero value
// decodes fine but the adapter rejects it with -EINVAL.
type RenameOp struct {
	From  string
	To    string
	Flags uint32
}

func (o *RenameOp) Kind() OpKind { return OpRename }
func (o *RenameOp) payloadSize() int {
	return wire.StringSize(o.From) + wire.StringSize(o.To) + 4
}
func (o *RenameOp) encode(w *wire.Writer) {
	w.PutString(o.From)
	w.PutString(o.To)
	w.PutUint32(o.Flags)
}

// LinkOp creates a hard link named To pointing at From.
type LinkOp struct {
	From string
	To   string
}

func (o *LinkOp) Kind() OpKind { return OpLink }
func (o *LinkOp) payloadSize() int {
	return wire.StringSize(o.From) + wire.StringSize(o.To)
}
func (o *LinkOp) encode(w *wire.Writer) {
	w.PutString(o.From)
	w.PutString(o.To)
}

// ChmodOp changes the permission bits of Path. Per spec §4.2 this must not
// follow a terminal symlink.
type ChmodOp struct {
	Path string
	Mode uint32
}

func (o *ChmodOp) Kind() OpKind         { return OpChmod }
func (o *ChmodOp) payloadSize() int     { return wire.StringSize(o.Path) + 4 }
func (o *ChmodOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutUint32(o.Mode)
}

// ChownOp changes ownership of Path without following a terminal symlink.
type ChownOp struct {
	Path string
	UID  uint32
	GID  uint32
}

func (o *ChownOp) Kind() OpKind { return OpChown }
func (o *ChownOp) payloadSize() int {
	return wire.StringSize(o.Path) + 4 + 4
}
func (o *ChownOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutUint32(o.UID)
	w.PutUint32(o.GID)
}

// TruncateOp sets the size of Path.
type TruncateOp struct {
	Path string
	Size int64
}

func (o *TruncateOp) Kind() OpKind         { return OpTruncate }
func (o *TruncateOp) payloadSize() int     { return wire.StringSize(o.Path) + 8 }
func (o *TruncateOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutInt64(o.Size)
}

// WriteOp performs a positional write that does not move any shared file
// offset. Data may be empty (a valid zero-byte write, spec §4.1).
type WriteOp struct {
	Path   string
	Data   []byte
	Offset int64
}

func (o *WriteOp) Kind() OpKind { return OpWrite }
func (o *WriteOp) payloadSize() int {
	return wire.StringSize(o.Path) + wire.OpaqueSize(len(o.Data)) + 8
}
func (o *WriteOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutOpaque(o.Data)
	w.PutInt64(o.Offset)
}

// CreateOp opens Path with O_CREAT semantics, creating it if absent.
type CreateOp struct {
	Path  string
	Mode  uint32
	Flags uint32
}

func (o *CreateOp) Kind() OpKind { return OpCreate }
func (o *CreateOp) payloadSize() int {
	return wire.StringSize(o.Path) + 4 + 4
}
func (o *CreateOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutUint32(o.Mode)
	w.PutUint32(o.Flags)
}

// UtimensOp sets the access and modification times of Path without following
// a terminal symlink. AtimeSec/AtimeNsec/MtimeSec/MtimeNsec are carried as
// four big-endian V(8) values, the "clean form" spec §9's Endian caveat
// recommends in place of the host-layout FixedBlob the original transmits;
// there is no legacy peer in this system to fall back to the host-layout
// form for, so only the clean form is implemented.
type UtimensOp struct {
	Path string

	AtimeSec  int64
	AtimeNsec int64
	MtimeSec  int64
	MtimeNsec int64
}

func (o *UtimensOp) Kind() OpKind { return OpUtimens }
func (o *UtimensOp) payloadSize() int {
	return wire.StringSize(o.Path) + 32
}
func (o *UtimensOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutInt64(o.AtimeSec)
	w.PutInt64(o.AtimeNsec)
	w.PutInt64(o.MtimeSec)
	w.PutInt64(o.MtimeNsec)
}

// FallocateOp preallocates space in Path. Mode must be 0 (spec §4.2); the
// adapter rejects any other value.
type FallocateOp struct {
	Path   string
	Mode   int32
	Offset int64
	Length int64
}

func (o *FallocateOp) Kind() OpKind { return OpFallocate }
func (o *FallocateOp) payloadSize() int {
	return wire.StringSize(o.Path) + 4 + 8 + 8
}
func (o *FallocateOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutInt32(o.Mode)
	w.PutInt64(o.Offset)
	w.PutInt64(o.Length)
}

// SetxattrOp sets an extended attribute on Path without following a terminal
// symlink. Value may be empty.
type SetxattrOp struct {
	Path  string
	Name  string
	Value []byte
	Flags int32
}

func (o *SetxattrOp) Kind() OpKind { return OpSetxattr }
func (o *SetxattrOp) payloadSize() int {
	return wire.StringSize(o.Path) + wire.StringSize(o.Name) + wire.OpaqueSize(len(o.Value)) + 4
}
func (o *SetxattrOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutString(o.Name)
	w.PutOpaque(o.Value)
	w.PutInt32(o.Flags)
}

// RemovexattrOp removes an extended attribute from Path without following a
// terminal symlink.
type RemovexattrOp struct {
	Path string
	Name string
}

func (o *RemovexattrOp) Kind() OpKind { return OpRemovexattr }
func (o *RemovexattrOp) payloadSize() int {
	return wire.StringSize(o.Path) + wire.StringSize(o.Name)
}
func (o *RemovexattrOp) encode(w *wire.Writer) {
	w.PutString(o.Path)
	w.PutString(o.Name)
}

// NopOp carries no payload. It decodes to a no-op and, in SYNC mode, is
// acknowledged with retcode 0 (spec §4.1).
type NopOp struct{}

func (o *NopOp) Kind() OpKind          { return OpNop }
func (o *NopOp) payloadSize() int      { return 0 }
func (o *NopOp) encode(w *wire.Writer) {}
