//go:build windows || plan9 || js

package blocking

import (
	"os"
	"time"
)

const haveNlink = false

// lChmod on Windows: Go's os.Chmod doesn't follow symlinks for the
// narrow set of bits Windows honors, so a plain Chmod is the closest
// available primitive (the teacher's lchmod_windows equivalent wasn't
// retrieved in the pack; this mirrors the no-op-beyond-os.Chmod shape
// its unix sibling documents as platform-specific).
func lChmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

func lChtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func lChown(name string, uid, gid int) error {
	return nil // ownership is not a meaningful concept on these platforms
}
