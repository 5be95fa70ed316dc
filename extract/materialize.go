package extract

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dsanders11/tarfs/dircache"
	"github.com/dsanders11/tarfs/entry"
	"github.com/dsanders11/tarfs/logx"
)

// materialize applies component F: given reconcile's decision, it
// dispatches on entry kind and does the actual filesystem write.
func (x *Extractor) materialize(e *entry.Entry, action reconcileAction) error {
	switch {
	case e.Kind.IsRegularFile():
		return x.materializeFile(e)
	case e.Kind.IsDirectoryLike():
		return x.materializeDirectory(e)
	case e.Kind == entry.KindLink:
		return x.materializeHardlink(e)
	case e.Kind == entry.KindSymbolicLink:
		return x.materializeSymlink(e)
	default:
		e.Unsupported = true
		x.warn("ENTRY_UNSUPPORTED", "unsupported entry kind: "+e.Kind.String(), e.Path)
		return e.Drain()
	}
}

func (x *Extractor) materializeFile(e *entry.Entry) error {
	mode := x.targetMode(e)
	f, err := x.fs.OpenFile(e.Absolute, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	body := e.Body
	if x.opt.Transform != nil {
		transformed, terr := x.opt.Transform(e)
		if terr != nil {
			_ = f.Close()
			return terr
		}
		if transformed != nil {
			body = transformed
		}
	}

	_, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}

	x.applyTimesAndOwner(e)
	return e.Resume()
}

func (x *Extractor) materializeDirectory(e *entry.Entry) error {
	if x.opt.NoChmod {
		// mkdirp would chmod an existing directory; leave its mode alone.
		if info, err := x.fs.Lstat(e.Absolute); err == nil && info.IsDir() {
			x.applyTimesAndOwner(e)
			return e.Resume()
		}
	}
	opts := dircache.Options{Mode: x.targetDirMode(e)}
	if err := dircache.MkdirPCached(x.dcfs, x.dirCache, x.cwd, e.Absolute, opts); err != nil {
		return err
	}
	x.applyTimesAndOwner(e)
	return e.Resume()
}

func (x *Extractor) materializeHardlink(e *entry.Entry) error {
	target := filepath.ToSlash(filepath.Join(x.cwd, filepath.FromSlash(e.LinkPath)))
	if err := x.fs.Link(target, e.Absolute); err != nil {
		return err
	}
	return e.Resume()
}

func (x *Extractor) materializeSymlink(e *entry.Entry) error {
	if err := x.fs.Symlink(e.LinkPath, e.Absolute); err != nil {
		return err
	}
	return e.Resume()
}

func (x *Extractor) applyTimesAndOwner(e *entry.Entry) {
	if !x.opt.NoMtime && e.HasMTime {
		atime := e.MTime
		if e.HasATime {
			atime = e.ATime
		}
		if err := x.fs.Utimes(e.Absolute, atime, e.MTime, true); err != nil {
			logx.Debugf(pathContext(e.Path), "failed to restore timestamps: %v", err)
		}
	}
	if x.dochown(e) {
		uid, gid := x.resolveOwner(e)
		if err := x.fs.Chown(e.Absolute, uid, gid, true); err != nil {
			logx.Debugf(pathContext(e.Path), "failed to restore owner: %v", err)
		}
	}
}

// dochown implements the DOCHOWN predicate (spec §4.6).
func (x *Extractor) dochown(e *entry.Entry) bool {
	if x.opt.ForceChown {
		return true
	}
	if x.preserveOwner {
		if e.HasUID && int(e.UID) != x.processUID {
			return true
		}
		if e.HasGID && int(e.GID) != x.processGID {
			return true
		}
	}
	if x.opt.HasUID && x.opt.UID != x.processUID {
		return true
	}
	if x.opt.HasGID && x.opt.GID != x.processGID {
		return true
	}
	return false
}

func (x *Extractor) resolveOwner(e *entry.Entry) (uid, gid int) {
	uid = x.processUID
	if x.opt.HasUID {
		uid = x.opt.UID
	} else if e.HasUID {
		uid = int(e.UID)
	}
	gid = x.processGID
	if x.opt.HasGID {
		gid = x.opt.GID
	} else if e.HasGID {
		gid = int(e.GID)
	}
	return
}

func (x *Extractor) targetMode(e *entry.Entry) os.FileMode {
	if e.HasMode {
		return os.FileMode(e.Mode & 0o7777)
	}
	if x.opt.FMode != 0 {
		return x.opt.FMode
	}
	return 0o666
}

func (x *Extractor) targetDirMode(e *entry.Entry) os.FileMode {
	if e.HasMode {
		return os.FileMode(e.Mode & 0o7777)
	}
	if x.opt.DMode != 0 {
		return x.opt.DMode
	}
	return 0o777
}

func (x *Extractor) parentDirOptions() dircache.Options {
	mode := x.opt.DMode
	if mode == 0 {
		mode = 0o777
	}
	return dircache.Options{Mode: mode}
}

func (x *Extractor) rootDirOptions() dircache.Options {
	return x.parentDirOptions()
}
