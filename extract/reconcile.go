package extract

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/dsanders11/tarfs/dircache"
	"github.com/dsanders11/tarfs/entry"
	"github.com/dsanders11/tarfs/fsx"
	"github.com/dsanders11/tarfs/internal/randname"
)

// reconcileAction tells the materializer (component F) what's left to
// do once the reconciler (component E) has settled the decision table.
type reconcileAction int

const (
	// actionCreate: nothing usable is on disk at e.Absolute (or it was
	// just cleared); materialize from scratch.
	actionCreate reconcileAction = iota
	// actionSkip: leave the existing object untouched.
	actionSkip
	// actionReuse: an existing regular file may be reused in place
	// (opened and truncated rather than unlinked first).
	actionReuse
)

// reconcile applies component E (the spec §4.5 CheckFS table) to e. It
// ensures the extraction root and e's parent directory exist, then
// inspects whatever currently occupies e.Absolute and decides how
// materialize should proceed.
func (x *Extractor) reconcile(e *entry.Entry) (reconcileAction, error) {
	x.invalidateCache(e)
	defer x.invalidateCache(e)

	if err := x.ensureCwd(); err != nil {
		return actionSkip, err
	}

	if e.Absolute == x.cwd {
		return actionCreate, nil
	}

	parent := filepath.Dir(e.Absolute)
	if parent != x.cwd {
		if err := dircache.MkdirPCached(x.dcfs, x.dirCache, x.cwd, parent, x.parentDirOptions()); err != nil {
			return actionSkip, err
		}
	}

	info, err := x.fs.Lstat(e.Absolute)
	if err != nil {
		if os.IsNotExist(err) {
			return actionCreate, nil
		}
		return actionSkip, err
	}

	if x.opt.Keep {
		return actionSkip, nil
	}
	if x.opt.Newer && e.HasMTime && info.ModTime().After(e.MTime) {
		return actionSkip, nil
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
		if e.Kind.IsRegularFile() && x.canReuse(e, info) {
			return actionReuse, nil
		}
		if err := x.unlink(e.Absolute); err != nil {
			return actionSkip, err
		}
		return actionCreate, nil

	case mode.IsDir():
		if e.Kind.IsDirectoryLike() {
			if !x.opt.NoChmod {
				if target := x.targetDirMode(e); mode.Perm() != target.Perm() {
					if err := x.fs.Chmod(e.Absolute, target); err != nil {
						return actionSkip, err
					}
				}
			}
			return actionCreate, nil
		}
		if err := x.fs.Rmdir(e.Absolute); err != nil {
			return actionSkip, err
		}
		return actionCreate, nil

	default: // symlink, device, fifo, or anything else occupying the slot
		if err := x.unlink(e.Absolute); err != nil {
			return actionSkip, err
		}
		return actionCreate, nil
	}
}

func (x *Extractor) canReuse(e *entry.Entry, info os.FileInfo) bool {
	if x.opt.Unlink {
		return false
	}
	if !x.fs.SupportsReuse() {
		return false
	}
	nlink, ok := fsx.Nlink(info)
	return ok && nlink <= 1
}

// unlink removes path, applying the rename-then-unlink workaround for
// the non-atomic-unlink race (spec §4.5, §9) on platforms that need
// it.
func (x *Extractor) unlink(path string) error {
	if x.fs.SupportsAtomicUnlink() {
		return x.fs.Unlink(path)
	}
	tmp := path + ".DELETE." + randname.Suffix()
	if err := x.fs.Rename(path, tmp); err != nil {
		return err
	}
	return x.fs.Unlink(tmp)
}

// invalidateCache drops dirCache entries a symlink or non-directory
// write might invalidate assumptions about. Called both before and
// after the filesystem work for e (spec §4.5).
func (x *Extractor) invalidateCache(e *entry.Entry) {
	if e.Kind == entry.KindSymbolicLink {
		x.dirCache.InvalidateAll()
	} else if !e.Kind.IsDirectoryLike() {
		x.dirCache.Invalidate(e.Absolute)
	}
}

func (x *Extractor) ensureCwd() error {
	x.cwdOnce.Do(func() {
		err := dircache.MkdirPCached(x.dcfs, x.dirCache, x.cwd, x.cwd, x.rootDirOptions())
		var cwdErr *dircache.CwdError
		if err != nil && !errors.As(err, &cwdErr) {
			err = &dircache.CwdError{Dir: x.cwd, Err: err}
		}
		x.cwdErr = err
	})
	return x.cwdErr
}
