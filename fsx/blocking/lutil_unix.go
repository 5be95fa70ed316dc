//go:build !windows && !plan9 && !js

package blocking

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const haveNlink = true

// syscallMode returns the syscall-specific mode bits from Go's
// portable mode bits. Borrowed from the syscall source since it isn't
// public — the same approach backend/local/lchmod_unix.go takes.
func syscallMode(i os.FileMode) (o uint32) {
	o |= uint32(i.Perm())
	if i&os.ModeSetuid != 0 {
		o |= syscall.S_ISUID
	}
	if i&os.ModeSetgid != 0 {
		o |= syscall.S_ISGID
	}
	if i&os.ModeSticky != 0 {
		o |= syscall.S_ISVTX
	}
	return o
}

// lChmod changes the mode of the named file without following a
// trailing symlink.
func lChmod(name string, mode os.FileMode) error {
	e := unix.Fchmodat(unix.AT_FDCWD, name, syscallMode(mode), unix.AT_SYMLINK_NOFOLLOW)
	if e == unix.EOPNOTSUPP {
		// Linux's fchmodat rejects AT_SYMLINK_NOFOLLOW outright; chmod
		// the path only when it is not itself a symlink.
		fi, err := os.Lstat(name)
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return &os.PathError{Op: "lChmod", Path: name, Err: e}
		}
		return os.Chmod(name, mode)
	}
	if e != nil {
		return &os.PathError{Op: "lChmod", Path: name, Err: e}
	}
	return nil
}

// lChtimes changes the access and modification times of the named
// link itself, similar to utimes(2) with AT_SYMLINK_NOFOLLOW.
func lChtimes(name string, atime, mtime time.Time) error {
	var utimes [2]unix.Timespec
	utimes[0] = unix.NsecToTimespec(atime.UnixNano())
	utimes[1] = unix.NsecToTimespec(mtime.UnixNano())
	if e := unix.UtimesNanoAt(unix.AT_FDCWD, name, utimes[0:], unix.AT_SYMLINK_NOFOLLOW); e != nil {
		return &os.PathError{Op: "lchtimes", Path: name, Err: e}
	}
	return nil
}

// lChown changes ownership of the named file without following a
// trailing symlink (os.Lchown already has this semantic on unix).
func lChown(name string, uid, gid int) error {
	return os.Lchown(name, uid, gid)
}
