package fsadapter

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// MaxPathSize is the largest resolved local path fsyncer will act on (spec
// §4.2). A longer result is a client-local error: the offending call alone
// returns -EOVERFLOW, the connection stays up.
const MaxPathSize = 4096

// Adapter applies mutation operations under Root, a fully-qualified local
// directory. The zero value is not usable; use New.
type Adapter struct {
	Root string
}

// New returns an Adapter rooted at root. root is used as-is (no symlink
// resolution, matching the fake_root concatenation this mirrors).
func New(root string) *Adapter {
	return &Adapter{Root: root}
}

// Resolve concatenates a's root with the protocol-level relative path rel,
// the same fake_root behavior the server and client both perform before
// calling into this package. It rejects empty paths (spec §4.1, "Empty
// paths are rejected by the replay side") and enforces MaxPathSize.
func (a *Adapter) Resolve(rel string) (string, int32) {
	if rel == "" {
		return "", -int32(unix.EINVAL)
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	if len(a.Root)+len(rel) > MaxPathSize {
		return "", -int32(unix.EOVERFLOW)
	}
	return filepath.Clean(a.Root + rel), 0
}

// Errno converts err (as returned by the os/syscall packages) into a
// negative platform errno. Non-errno errors collapse to -EIO.
func Errno(err error) int32 {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	switch e := err.(type) {
	case syscall.Errno:
		errno = e
	case *os.PathError:
		return Errno(e.Err)
	case *os.LinkError:
		return Errno(e.Err)
	case *os.SyscallError:
		return Errno(e.Err)
	default:
		if num, ok := err.(interface{ Errno() syscall.Errno }); ok {
			errno = num.Errno()
		} else {
			return -int32(unix.EIO)
		}
	}
	return -int32(errno)
}

// Mknod creates path as a FIFO if mode names one, else a device or regular
// node (spec §4.2).
func (a *Adapter) Mknod(path string, mode uint32, rdev uint32) int32 {
	fm := os.FileMode(mode)
	var err error
	if fm&os.ModeNamedPipe != 0 || (mode&unix.S_IFMT) == unix.S_IFIFO {
		err = unix.Mkfifo(path, mode)
	} else {
		err = unix.Mknod(path, mode, int(rdev))
	}
	return Errno(err)
}

// Mkdir creates a directory.
func (a *Adapter) Mkdir(path string, mode uint32) int32 {
	return Errno(unix.Mkdir(path, mode))
}

// Unlink removes a non-directory entry.
func (a *Adapter) Unlink(path string) int32 {
	return Errno(unix.Unlink(path))
}

// Rmdir removes an empty directory.
func (a *Adapter) Rmdir(path string) int32 {
	return Errno(unix.Rmdir(path))
}

// Symlink creates a symbolic link named to pointing at from.
func (a *Adapter) Symlink(from, to string) int32 {
	return Errno(unix.Symlink(from, to))
}

// Rename renames from to to. flags must be 0 (spec §4.2); any other value is
// rejected with -EINVAL without touching the filesystem, mirroring the
// renameat2-less rename() the source falls back to.
func (a *Adapter) Rename(from, to string, flags uint32) int32 {
	if flags != 0 {
		return -int32(unix.EINVAL)
	}
	return Errno(unix.Rename(from, to))
}

// Link creates a hard link named to pointing at from.
func (a *Adapter) Link(from, to string) int32 {
	return Errno(unix.Link(from, to))
}

// ChmodPath changes the permission bits of path without following a
// terminal symlink, via fchmodat(..., AT_SYMLINK_NOFOLLOW). Linux itself has
// no lchmod(2): fchmodat rejects the no-follow flag there with ENOTSUP, a
// known platform gap also documented by rclone's local backend for the same
// call; on BSD/Darwin it succeeds.
func (a *Adapter) ChmodPath(path string, mode uint32) int32 {
	return Errno(unix.Fchmodat(unix.AT_FDCWD, path, mode, unix.AT_SYMLINK_NOFOLLOW))
}

// ChmodHandle changes the permission bits of an already-open file.
func (a *Adapter) ChmodHandle(fd uintptr, mode uint32) int32 {
	return Errno(unix.Fchmod(int(fd), mode))
}

// ChownPath changes ownership of path without following a terminal symlink.
func (a *Adapter) ChownPath(path string, uid, gid uint32) int32 {
	return Errno(unix.Lchown(path, int(uid), int(gid)))
}

// ChownHandle changes ownership of an already-open file.
func (a *Adapter) ChownHandle(fd uintptr, uid, gid uint32) int32 {
	return Errno(unix.Fchown(int(fd), int(uid), int(gid)))
}

// TruncatePath sets the size of path.
func (a *Adapter) TruncatePath(path string, size int64) int32 {
	return Errno(unix.Truncate(path, size))
}

// TruncateHandle sets the size of an already-open file.
func (a *Adapter) TruncateHandle(fd uintptr, size int64) int32 {
	return Errno(unix.Ftruncate(int(fd), size))
}

// WritePath performs a positional write to path, opening and closing a
// private fd (the replay side never holds handles across frames). It
// returns the byte count written, or a negative errno.
func (a *Adapter) WritePath(path string, buf []byte, offset int64) int32 {
	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return Errno(err)
	}
	defer unix.Close(fd)
	return a.WriteHandle(uintptr(fd), buf, offset)
}

// WriteHandle performs a positional write to an already-open file. It does
// not move the file's shared offset (spec §4.2).
func (a *Adapter) WriteHandle(fd uintptr, buf []byte, offset int64) int32 {
	n, err := unix.Pwrite(int(fd), buf, offset)
	if err != nil {
		return Errno(err)
	}
	return int32(n)
}

// Create opens path with O_CREAT semantics and the given mode/flags,
// returning the new fd (or a negative errno) so the caller can keep it open
// for subsequent Write/Truncate/Chmod/Chown calls in handle form.
func (a *Adapter) Create(path string, mode uint32, flags uint32) (fd uintptr, retcode int32) {
	f, err := unix.Open(path, int(flags), mode)
	if err != nil {
		return 0, Errno(err)
	}
	return uintptr(f), 0
}

// UtimensPath sets access/modification times on path without following a
// terminal symlink.
func (a *Adapter) UtimensPath(path string, atimeSec, atimeNsec, mtimeSec, mtimeNsec int64) int32 {
	ts := []unix.Timespec{
		unix.NsecToTimespec(atimeSec*int64(1e9) + atimeNsec),
		unix.NsecToTimespec(mtimeSec*int64(1e9) + mtimeNsec),
	}
	return Errno(unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, unix.AT_SYMLINK_NOFOLLOW))
}

// UtimensHandle sets access/modification times on an already-open file.
func (a *Adapter) UtimensHandle(fd uintptr, atimeSec, atimeNsec, mtimeSec, mtimeNsec int64) int32 {
	ts := [2]unix.Timespec{
		unix.NsecToTimespec(atimeSec*int64(1e9) + atimeNsec),
		unix.NsecToTimespec(mtimeSec*int64(1e9) + mtimeNsec),
	}
	return Errno(unix.Futimens(int(fd), &ts))
}

// SetxattrPath sets an extended attribute on path without following a
// terminal symlink.
func (a *Adapter) SetxattrPath(path, name string, value []byte, flags int32) int32 {
	return Errno(unix.Lsetxattr(path, name, value, int(flags)))
}

// RemovexattrPath removes an extended attribute from path without following
// a terminal symlink.
func (a *Adapter) RemovexattrPath(path, name string) int32 {
	return Errno(unix.Lremovexattr(path, name))
}
