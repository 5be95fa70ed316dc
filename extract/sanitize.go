package extract

import (
	"path"
	"strings"

	"github.com/dsanders11/tarfs/entry"
	"github.com/dsanders11/tarfs/pathcanon"
)

// sanitize applies component D (the spec §4.4 CheckPath table) to e,
// rewriting Path, LinkPath, and Absolute in place. ok is false when the
// entry must be skipped without ever being reserved; the entry's
// payload still needs draining by the caller either way.
func (x *Extractor) sanitize(e *entry.Entry) (ok bool) {
	segs := splitSegments(e.Path)

	if x.opt.Strip > 0 {
		if len(segs) <= x.opt.Strip {
			x.warn("ENTRY_ERROR", "strip removes the entire path", e.Path)
			return false
		}
		segs = segs[x.opt.Strip:]
		e.Path = joinSegments(segs)

		if e.Kind == entry.KindLink && e.LinkPath != "" {
			lsegs := splitSegments(e.LinkPath)
			if len(lsegs) <= x.opt.Strip {
				x.warn("ENTRY_ERROR", "strip removes the entire link target", e.Path)
				return false
			}
			e.LinkPath = joinSegments(lsegs[x.opt.Strip:])
		}
	}

	if x.opt.MaxDepth > 0 && len(segs) > x.opt.MaxDepth {
		x.warn("ENTRY_ERROR", "path excessively deep", e.Path)
		return false
	}

	if !x.opt.PreservePaths {
		for _, s := range segs {
			if s == ".." {
				x.warn("ENTRY_ERROR", "path contains '..'", e.Path)
				return false
			}
		}
	}

	if !x.opt.PreservePaths {
		if prefix, remainder := pathcanon.StripAbsolute(e.Path); prefix != "" {
			e.Path = remainder
			x.warnf("ENTRY_INFO", e.Path, "stripping %s from absolute path", prefix)
		}
	}

	var absolute string
	if isAbsolutePath(e.Path) {
		absolute = path.Clean(pathcanon.NormalizeSeparators(e.Path))
	} else {
		absolute = path.Join(x.cwd, e.Path)
	}

	if absolute != x.cwd && !strings.HasPrefix(absolute, x.cwd+"/") {
		x.warn("ENTRY_ERROR", "path escaped extraction target", e.Path)
		return false
	}

	if absolute == x.cwd && !e.Kind.IsDirectoryLike() {
		return false
	}

	if x.opt.Win32 {
		absolute = winEncodePastDriveRoot(absolute)
		e.Path = winEncodePastDriveRoot(e.Path)
	}

	e.Absolute = absolute
	return true
}
