package mountops

// Every *Path request carries Path relative to the server's configured
// root — the same form that goes out over the wire unchanged, so that a
// peer can resolve it against its own destination root. Dispatcher
// resolves it against the local root via fsadapter.Adapter.Resolve
// before applying it, then broadcasts the request's Path as received.
// Every *Handle request carries an already-open file descriptor obtained
// from a prior CreateRequest. This Path/Handle split mirrors fsadapter's
// own method pairs (ChmodPath/ChmodHandle, etc.), which in turn follow
// the C original's fd-avoiding dual entry points (SPEC_FULL.md
// supplemented feature 2).

// MknodRequest creates a device, FIFO, or regular file node.
type MknodRequest struct {
	Path string
	Mode uint32
	Rdev uint32
}

// MkdirRequest creates a directory.
type MkdirRequest struct {
	Path string
	Mode uint32
}

// UnlinkRequest removes a non-directory directory entry.
type UnlinkRequest struct {
	Path string
}

// RmdirRequest removes an empty directory.
type RmdirRequest struct {
	Path string
}

// SymlinkRequest creates a symbolic link named To pointing at From.
type SymlinkRequest struct {
	From string
	To   string
}

// RenameRequest renames From to To. Flags must be 0 (spec §4.2).
type RenameRequest struct {
	From  string
	To    string
	Flags uint32
}

// LinkRequest creates a hard link named To pointing at From.
type LinkRequest struct {
	From string
	To   string
}

// ChmodPathRequest changes the permission bits of Path, without
// following a terminal symlink.
type ChmodPathRequest struct {
	Path string
	Mode uint32
}

// ChmodHandleRequest changes the permission bits of an already-open file.
// Path is the relative path the handle was opened against; the wire
// protocol only ever carries CHMOD by path (spec §6), so Path is what
// gets replicated even when the local apply uses Handle.
type ChmodHandleRequest struct {
	Handle uintptr
	Path   string
	Mode   uint32
}

// ChownPathRequest changes ownership of Path without following a
// terminal symlink.
type ChownPathRequest struct {
	Path string
	UID  uint32
	GID  uint32
}

// ChownHandleRequest changes ownership of an already-open file. Path is
// the relative path the handle was opened against; see ChmodHandleRequest.
type ChownHandleRequest struct {
	Handle uintptr
	Path   string
	UID    uint32
	GID    uint32
}

// TruncatePathRequest sets the size of Path.
type TruncatePathRequest struct {
	Path string
	Size int64
}

// TruncateHandleRequest sets the size of an already-open file. Path is
// the relative path the handle was opened against; see ChmodHandleRequest.
type TruncateHandleRequest struct {
	Handle uintptr
	Path   string
	Size   int64
}

// WritePathRequest performs a positional write to Path.
type WritePathRequest struct {
	Path   string
	Data   []byte
	Offset int64
}

// WriteHandleRequest performs a positional write to an already-open file.
// Path is the relative path the handle was opened against; see
// ChmodHandleRequest.
type WriteHandleRequest struct {
	Handle uintptr
	Path   string
	Data   []byte
	Offset int64
}

// CreateRequest opens Path with O_CREAT semantics.
type CreateRequest struct {
	Path  string
	Mode  uint32
	Flags uint32
}

// UtimensPathRequest sets access/modification times on Path without
// following a terminal symlink.
type UtimensPathRequest struct {
	Path      string
	AtimeSec  int64
	AtimeNsec int64
	MtimeSec  int64
	MtimeNsec int64
}

// UtimensHandleRequest sets access/modification times on an already-open
// file. Path is the relative path the handle was opened against; see
// ChmodHandleRequest.
type UtimensHandleRequest struct {
	Handle    uintptr
	Path      string
	AtimeSec  int64
	AtimeNsec int64
	MtimeSec  int64
	MtimeNsec int64
}

// FallocatePathRequest preallocates space in Path. Mode must
// be 0 (spec §4.2).
type FallocatePathRequest struct {
	Path   string
	Mode   int32
	Offset int64
	Length int64
}

// FallocateHandleRequest preallocates space in an already-open
// file. Path is the relative path the handle was opened against; see
// ChmodHandleRequest.
type FallocateHandleRequest struct {
	Handle uintptr
	Path   string
	Mode   int32
	Offset int64
	Length int64
}

// SetxattrRequest sets an extended attribute on Path without following a
// terminal symlink.
type SetxattrRequest struct {
	Path  string
	Name  string
	Value []byte
	Flags int32
}

// RemovexattrRequest removes an extended attribute from Path without
// following a terminal symlink.
type RemovexattrRequest struct {
	Path string
	Name string
}

// Response is returned by every Handler method: the POSIX-style return
// code the Mutation Source should propagate back to its own caller, and,
// for Create, the opened handle.
type Response struct {
	Retcode int32
	Handle  uintptr
}
