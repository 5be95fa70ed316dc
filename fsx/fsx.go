// Package fsx defines the FS executor capability set spec §9 asks for:
// the small set of filesystem operations the reconciler (component E)
// and materializer (component F) need, factored out so a blocking and
// a non-blocking implementation can share the same state machine.
package fsx

import (
	"io/fs"
	"os"
	"time"
)

// File is the subset of *os.File the materializer needs once a file is
// open for writing.
type File interface {
	Write(p []byte) (int, error)
	Close() error
	Fd() uintptr
}

// FS is the capability set. A blocking implementation (fsx/blocking)
// calls straight through to os/golang.org/x/sys/unix; the async
// implementation (fsx/async) makes the same calls on the caller's
// goroutine behind a weighted semaphore that caps how many are in
// flight at once across all reservations.
type FS interface {
	Lstat(path string) (fs.FileInfo, error)
	Mkdir(path string, mode os.FileMode) error
	Chmod(path string, mode os.FileMode) error
	Unlink(path string) error
	Rename(oldpath, newpath string) error
	Rmdir(path string) error
	OpenFile(path string, flag int, mode os.FileMode) (File, error)
	Utimes(path string, atime, mtime time.Time, useFd bool) error
	Chown(path string, uid, gid int, useFd bool) error
	Link(oldpath, newpath string) error
	Symlink(oldname, newname string) error

	// SupportsReuse reports whether this platform's stat results carry
	// a trustworthy link count, which the FS reconciler needs to
	// decide whether reusing an existing regular file's inode could
	// silently corrupt a hard-link peer (spec §4.5, §9 open question:
	// implemented as a capability probe rather than a GOOS string
	// match).
	SupportsReuse() bool

	// SupportsAtomicUnlink reports whether unlink-then-create on this
	// platform is safe from the non-atomic-unlink race spec §4.5
	// describes. When false, callers use the rename-then-unlink
	// workaround instead of a direct Unlink before a create.
	SupportsAtomicUnlink() bool
}

// Nlink extracts the hard-link count from a FileInfo when the
// underlying platform exposes one; ok is false when it cannot be
// determined (e.g. no *syscall.Stat_t, or a platform without nlink
// semantics), which the reconciler treats as "reuse not safe".
func Nlink(info fs.FileInfo) (n uint64, ok bool) {
	return nlinkFromSys(info)
}
