package fsadapter

import (
	"os"

	"github.com/detailyang/go-fallocate"
	"golang.org/x/sys/unix"
)

// FallocatePath preallocates space in path. mode must be 0 (spec
// §4.2); the go-fallocate package covers the platforms posix_fallocate
// itself doesn't (it falls back to writing zero bytes where the syscall is
// unavailable), replacing the teacher's direct posix_fallocate(3) call.
func (a *Adapter) FallocatePath(path string, mode int32, offset, length int64) int32 {
	if mode != 0 {
		return -int32(unix.EOPNOTSUPP)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return Errno(err)
	}
	defer f.Close()

	if err := fallocate.Fallocate(f, offset, length); err != nil {
		return Errno(err)
	}
	return 0
}

// FallocateHandle is the handle-form counterpart of FallocatePath.
func (a *Adapter) FallocateHandle(fd uintptr, mode int32, offset, length int64) int32 {
	if mode != 0 {
		return -int32(unix.EOPNOTSUPP)
	}
	// The caller owns fd's lifetime. os.NewFile would close the descriptor it
	// wraps once garbage collected, so it wraps a duplicate instead, closed
	// here; fd itself stays open after this call.
	dup, err := unix.Dup(int(fd))
	if err != nil {
		return Errno(err)
	}
	f := os.NewFile(uintptr(dup), "")
	defer f.Close()
	if err := fallocate.Fallocate(f, offset, length); err != nil {
		return Errno(err)
	}
	return 0
}
