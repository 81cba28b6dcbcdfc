package mountops

import (
	"context"
	"sync/atomic"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsadapter"
	"github.com/fsyncer/fsyncer/fsproto"
)

// Dispatcher is the concrete Handler the Server Front-End's accept loop
// (or, in-process, the Mutation Source glue) is built around: it
// resolves each request's Path against the local root, applies it via
// fsadapter, then fans the operation out to every replication peer via
// fanout.Engine using the request's original, unresolved Path — exactly
// in the order spec §2's data-flow diagram describes — apply locally
// first, obtain the return code, encode, broadcast.
//
// Per spec §4.8, a local failure is never fatal and never suppresses
// fan-out: a diverging retcode is still replicated so peers observe the
// same divergence the server did. This includes a Resolve failure (e.g.
// -EOVERFLOW): the local apply is skipped, but the operation is still
// broadcast with its unresolved Path.
type Dispatcher struct {
	Adapter *fsadapter.Adapter
	Engine  *fanout.Engine

	nextTID uint64
}

func (d *Dispatcher) tid() uint64 {
	return atomic.AddUint64(&d.nextTID, 1)
}

var _ Handler = (*Dispatcher)(nil)

func (d *Dispatcher) Mknod(_ context.Context, req *MknodRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.Mknod(path, req.Mode, req.Rdev)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.MknodOp{Path: req.Path, Mode: req.Mode, Rdev: req.Rdev})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Mkdir(_ context.Context, req *MkdirRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.Mkdir(path, req.Mode)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.MkdirOp{Path: req.Path, Mode: req.Mode})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Unlink(_ context.Context, req *UnlinkRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.Unlink(path)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.UnlinkOp{Path: req.Path})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Rmdir(_ context.Context, req *RmdirRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.Rmdir(path)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.RmdirOp{Path: req.Path})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Symlink(_ context.Context, req *SymlinkRequest) (*Response, error) {
	to, rc := d.Adapter.Resolve(req.To)
	if rc == 0 {
		rc = d.Adapter.Symlink(req.From, to)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.SymlinkOp{From: req.From, To: req.To})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Rename(_ context.Context, req *RenameRequest) (*Response, error) {
	from, rc := d.Adapter.Resolve(req.From)
	if rc == 0 {
		var to string
		to, rc = d.Adapter.Resolve(req.To)
		if rc == 0 {
			rc = d.Adapter.Rename(from, to, req.Flags)
		}
	}
	d.Engine.Broadcast(d.tid(), &fsproto.RenameOp{From: req.From, To: req.To, Flags: req.Flags})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Link(_ context.Context, req *LinkRequest) (*Response, error) {
	from, rc := d.Adapter.Resolve(req.From)
	if rc == 0 {
		var to string
		to, rc = d.Adapter.Resolve(req.To)
		if rc == 0 {
			rc = d.Adapter.Link(from, to)
		}
	}
	d.Engine.Broadcast(d.tid(), &fsproto.LinkOp{From: req.From, To: req.To})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) ChmodPath(_ context.Context, req *ChmodPathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.ChmodPath(path, req.Mode)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.ChmodOp{Path: req.Path, Mode: req.Mode})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) ChmodHandle(_ context.Context, req *ChmodHandleRequest) (*Response, error) {
	rc := d.Adapter.ChmodHandle(req.Handle, req.Mode)
	d.Engine.Broadcast(d.tid(), &fsproto.ChmodOp{Path: req.Path, Mode: req.Mode})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) ChownPath(_ context.Context, req *ChownPathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.ChownPath(path, req.UID, req.GID)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.ChownOp{Path: req.Path, UID: req.UID, GID: req.GID})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) ChownHandle(_ context.Context, req *ChownHandleRequest) (*Response, error) {
	rc := d.Adapter.ChownHandle(req.Handle, req.UID, req.GID)
	d.Engine.Broadcast(d.tid(), &fsproto.ChownOp{Path: req.Path, UID: req.UID, GID: req.GID})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) TruncatePath(_ context.Context, req *TruncatePathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.TruncatePath(path, req.Size)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.TruncateOp{Path: req.Path, Size: req.Size})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) TruncateHandle(_ context.Context, req *TruncateHandleRequest) (*Response, error) {
	rc := d.Adapter.TruncateHandle(req.Handle, req.Size)
	d.Engine.Broadcast(d.tid(), &fsproto.TruncateOp{Path: req.Path, Size: req.Size})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) WritePath(_ context.Context, req *WritePathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.WritePath(path, req.Data, req.Offset)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.WriteOp{Path: req.Path, Data: req.Data, Offset: req.Offset})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) WriteHandle(_ context.Context, req *WriteHandleRequest) (*Response, error) {
	rc := d.Adapter.WriteHandle(req.Handle, req.Data, req.Offset)
	d.Engine.Broadcast(d.tid(), &fsproto.WriteOp{Path: req.Path, Data: req.Data, Offset: req.Offset})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Create(_ context.Context, req *CreateRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	var fd uintptr
	if rc == 0 {
		fd, rc = d.Adapter.Create(path, req.Mode, req.Flags)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.CreateOp{Path: req.Path, Mode: req.Mode, Flags: req.Flags})
	return &Response{Retcode: rc, Handle: fd}, nil
}

func (d *Dispatcher) UtimensPath(_ context.Context, req *UtimensPathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.UtimensPath(path, req.AtimeSec, req.AtimeNsec, req.MtimeSec, req.MtimeNsec)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.UtimensOp{
		Path:      req.Path,
		AtimeSec:  req.AtimeSec,
		AtimeNsec: req.AtimeNsec,
		MtimeSec:  req.MtimeSec,
		MtimeNsec: req.MtimeNsec,
	})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) UtimensHandle(_ context.Context, req *UtimensHandleRequest) (*Response, error) {
	rc := d.Adapter.UtimensHandle(req.Handle, req.AtimeSec, req.AtimeNsec, req.MtimeSec, req.MtimeNsec)
	d.Engine.Broadcast(d.tid(), &fsproto.UtimensOp{
		Path:      req.Path,
		AtimeSec:  req.AtimeSec,
		AtimeNsec: req.AtimeNsec,
		MtimeSec:  req.MtimeSec,
		MtimeNsec: req.MtimeNsec,
	})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) FallocatePath(_ context.Context, req *FallocatePathRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.FallocatePath(path, req.Mode, req.Offset, req.Length)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.FallocateOp{Path: req.Path, Mode: req.Mode, Offset: req.Offset, Length: req.Length})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) FallocateHandle(_ context.Context, req *FallocateHandleRequest) (*Response, error) {
	rc := d.Adapter.FallocateHandle(req.Handle, req.Mode, req.Offset, req.Length)
	d.Engine.Broadcast(d.tid(), &fsproto.FallocateOp{Path: req.Path, Mode: req.Mode, Offset: req.Offset, Length: req.Length})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Setxattr(_ context.Context, req *SetxattrRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.SetxattrPath(path, req.Name, req.Value, req.Flags)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.SetxattrOp{Path: req.Path, Name: req.Name, Value: req.Value, Flags: req.Flags})
	return &Response{Retcode: rc}, nil
}

func (d *Dispatcher) Removexattr(_ context.Context, req *RemovexattrRequest) (*Response, error) {
	path, rc := d.Adapter.Resolve(req.Path)
	if rc == 0 {
		rc = d.Adapter.RemovexattrPath(path, req.Name)
	}
	d.Engine.Broadcast(d.tid(), &fsproto.RemovexattrOp{Path: req.Path, Name: req.Name})
	return &Response{Retcode: rc}, nil
}
