package mountops

import "context"

// Handler is implemented by anything the external Mutation Source calls
// into for a completed, about-to-be-applied mutation. It is the concrete
// shape of spec §2's "Mutation Source Interface": one method per
// operation kind, each taking a context.Context (mirroring the teacher's
// own context threading through fuse.FileSystem, now the standard
// library's package rather than golang.org/x/net/context) and returning
// the Response the source propagates back to its own caller.
type Handler interface {
	Mknod(ctx context.Context, req *MknodRequest) (*Response, error)
	Mkdir(ctx context.Context, req *MkdirRequest) (*Response, error)
	Unlink(ctx context.Context, req *UnlinkRequest) (*Response, error)
	Rmdir(ctx context.Context, req *RmdirRequest) (*Response, error)
	Symlink(ctx context.Context, req *SymlinkRequest) (*Response, error)
	Rename(ctx context.Context, req *RenameRequest) (*Response, error)
	Link(ctx context.Context, req *LinkRequest) (*Response, error)
	ChmodPath(ctx context.Context, req *ChmodPathRequest) (*Response, error)
	ChmodHandle(ctx context.Context, req *ChmodHandleRequest) (*Response, error)
	ChownPath(ctx context.Context, req *ChownPathRequest) (*Response, error)
	ChownHandle(ctx context.Context, req *ChownHandleRequest) (*Response, error)
	TruncatePath(ctx context.Context, req *TruncatePathRequest) (*Response, error)
	TruncateHandle(ctx context.Context, req *TruncateHandleRequest) (*Response, error)
	WritePath(ctx context.Context, req *WritePathRequest) (*Response, error)
	WriteHandle(ctx context.Context, req *WriteHandleRequest) (*Response, error)
	Create(ctx context.Context, req *CreateRequest) (*Response, error)
	UtimensPath(ctx context.Context, req *UtimensPathRequest) (*Response, error)
	UtimensHandle(ctx context.Context, req *UtimensHandleRequest) (*Response, error)
	FallocatePath(ctx context.Context, req *FallocatePathRequest) (*Response, error)
	FallocateHandle(ctx context.Context, req *FallocateHandleRequest) (*Response, error)
	Setxattr(ctx context.Context, req *SetxattrRequest) (*Response, error)
	Removexattr(ctx context.Context, req *RemovexattrRequest) (*Response, error)
}

// NotImplementedHandler answers every method with ErrNotImplemented.
// Embed it in a partial Handler to inherit defaults for the operations it
// doesn't care to override, the same role fuse.NotImplementedFileSystem
// plays for fuse.FileSystem.
type NotImplementedHandler struct{}

var _ Handler = (*NotImplementedHandler)(nil)

// ErrNotImplemented is returned by every NotImplementedHandler method.
var ErrNotImplemented = notImplementedError{}

type notImplementedError struct{}

func (notImplementedError) Error() string { return "mountops: not implemented" }

func (NotImplementedHandler) Mknod(context.Context, *MknodRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Mkdir(context.Context, *MkdirRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Unlink(context.Context, *UnlinkRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Rmdir(context.Context, *RmdirRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Symlink(context.Context, *SymlinkRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Rename(context.Context, *RenameRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Link(context.Context, *LinkRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) ChmodPath(context.Context, *ChmodPathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) ChmodHandle(context.Context, *ChmodHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) ChownPath(context.Context, *ChownPathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) ChownHandle(context.Context, *ChownHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) TruncatePath(context.Context, *TruncatePathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) TruncateHandle(context.Context, *TruncateHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) WritePath(context.Context, *WritePathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) WriteHandle(context.Context, *WriteHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Create(context.Context, *CreateRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) UtimensPath(context.Context, *UtimensPathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) UtimensHandle(context.Context, *UtimensHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) FallocatePath(context.Context, *FallocatePathRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) FallocateHandle(context.Context, *FallocateHandleRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Setxattr(context.Context, *SetxattrRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
func (NotImplementedHandler) Removexattr(context.Context, *RemovexattrRequest) (*Response, error) {
	return nil, ErrNotImplemented
}
