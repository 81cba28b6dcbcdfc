package fsadapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/fsyncer/fsyncer/fsadapter"
)

func TestResolveRejectsEmptyPath(t *testing.T) {
	a := fsadapter.New("/tmp/root")
	if _, retcode := a.Resolve(""); retcode != -int32(unix.EINVAL) {
		t.Fatalf("got %d, want -EINVAL", retcode)
	}
}

func TestResolveRejectsOverflow(t *testing.T) {
	a := fsadapter.New("/tmp/root")
	long := "/" + string(make([]byte, fsadapter.MaxPathSize))
	if _, retcode := a.Resolve(long); retcode != -int32(unix.EOVERFLOW) {
		t.Fatalf("got %d, want -EOVERFLOW", retcode)
	}
}

func TestResolveJoinsRootAndRelativePath(t *testing.T) {
	a := fsadapter.New("/srv/tree")
	got, retcode := a.Resolve("/a/b")
	if retcode != 0 {
		t.Fatalf("retcode = %d, want 0", retcode)
	}
	if want := "/srv/tree/a/b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMkdirWriteTruncateScenario(t *testing.T) {
	root := t.TempDir()
	a := fsadapter.New(root)

	dirPath, rc := a.Resolve("/a")
	if rc != 0 {
		t.Fatalf("resolve /a: %d", rc)
	}
	if rc := a.Mkdir(dirPath, 0o755); rc != 0 {
		t.Fatalf("mkdir: %d", rc)
	}

	filePath, rc := a.Resolve("/a/b")
	if rc != 0 {
		t.Fatalf("resolve /a/b: %d", rc)
	}
	fd, rc := a.Create(filePath, 0o644, unix.O_WRONLY|unix.O_CREAT)
	if rc != 0 {
		t.Fatalf("create: %d", rc)
	}
	defer unix.Close(int(fd))

	if rc := a.WriteHandle(fd, []byte("hello"), 0); rc != 5 {
		t.Fatalf("write: %d", rc)
	}
	if rc := a.TruncateHandle(fd, 3); rc != 0 {
		t.Fatalf("truncate: %d", rc)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hel" {
		t.Fatalf("contents = %q, want %q", data, "hel")
	}

	info, err := os.Stat(dirPath)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s", dirPath)
	}
}

func TestSymlinkChmodDoesNotFollow(t *testing.T) {
	root := t.TempDir()
	a := fsadapter.New(root)

	targetPath := filepath.Join(root, "target")
	if err := os.WriteFile(targetPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	linkPath, rc := a.Resolve("/link")
	if rc != 0 {
		t.Fatalf("resolve: %d", rc)
	}
	if rc := a.Symlink("../target", linkPath); rc != 0 {
		t.Fatalf("symlink: %d", rc)
	}

	dest, err := os.Readlink(linkPath)
	if err != nil || dest != "../target" {
		t.Fatalf("readlink = %q, err %v", dest, err)
	}

	targetInfoBefore, err := os.Stat(targetPath)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}

	// On Linux (no lchmod) ChmodPath fails with EOPNOTSUPP instead of
	// following the link; on any platform the target's mode is untouched.
	_ = a.ChmodPath(linkPath, 0o600)

	targetInfoAfter, err := os.Stat(targetPath)
	if err != nil {
		t.Fatalf("stat target after chmod: %v", err)
	}
	if targetInfoAfter.Mode() != targetInfoBefore.Mode() {
		t.Fatalf("chmod of the link changed the target's mode: %v -> %v", targetInfoBefore.Mode(), targetInfoAfter.Mode())
	}
}

func TestRenameWithFlagsIsRejected(t *testing.T) {
	root := t.TempDir()
	a := fsadapter.New(root)

	aPath, _ := a.Resolve("/a")
	os.WriteFile(aPath, []byte("x"), 0o644)
	bPath, _ := a.Resolve("/b")

	if rc := a.Rename(aPath, bPath, 1); rc != -int32(unix.EINVAL) {
		t.Fatalf("rename with flags: got %d, want -EINVAL", rc)
	}
	if _, err := os.Stat(bPath); err == nil {
		t.Fatalf("rename with flags must not have touched the filesystem")
	}
}

func TestFallocateRejectsNonZeroMode(t *testing.T) {
	root := t.TempDir()
	a := fsadapter.New(root)
	path, _ := a.Resolve("/f")
	os.WriteFile(path, nil, 0o644)

	if rc := a.FallocatePath(path, 1, 0, 10); rc != -int32(unix.EOPNOTSUPP) {
		t.Fatalf("got %d, want -EOPNOTSUPP", rc)
	}
}

func TestWriteZeroBytesAtLargeOffset(t *testing.T) {
	root := t.TempDir()
	a := fsadapter.New(root)
	path, _ := a.Resolve("/f")
	os.WriteFile(path, nil, 0o644)

	if rc := a.WritePath(path, []byte{}, 1<<30); rc != 0 {
		t.Fatalf("zero-byte write: got %d, want 0", rc)
	}
}
