// Package blocking implements fsx.FS directly against the operating
// system: the sequential-sync profile of spec §5. Every method call
// blocks the calling goroutine until the underlying syscall returns.
//
// Grounded on backend/local/local.go's direct os/golang.org/x/sys/unix
// use and its platform-split lchmod_unix.go/lchtimes_unix.go files
// (see DESIGN.md).
package blocking

import (
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/dsanders11/tarfs/fsx"
)

// FS is the blocking fsx.FS implementation. The zero value is ready to
// use.
type FS struct{}

var _ fsx.FS = FS{}

func (FS) Lstat(path string) (fs.FileInfo, error) { return os.Lstat(path) }

func (FS) Mkdir(path string, mode os.FileMode) error { return os.Mkdir(path, mode) }

func (FS) Chmod(path string, mode os.FileMode) error { return lChmod(path, mode) }

func (FS) Unlink(path string) error { return os.Remove(path) }

func (FS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (FS) Rmdir(path string) error { return os.Remove(path) }

func (FS) OpenFile(path string, flag int, mode os.FileMode) (fsx.File, error) {
	return os.OpenFile(path, flag, mode)
}

func (FS) Utimes(path string, atime, mtime time.Time, useFd bool) error {
	return lChtimes(path, atime, mtime)
}

func (FS) Chown(path string, uid, gid int, useFd bool) error {
	return lChown(path, uid, gid)
}

func (FS) Link(oldpath, newpath string) error { return os.Link(oldpath, newpath) }

func (FS) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

func (FS) SupportsReuse() bool { return haveNlink }

func (FS) SupportsAtomicUnlink() bool { return runtime.GOOS != "windows" }
