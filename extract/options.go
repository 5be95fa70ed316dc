package extract

import (
	"io"
	"os"

	"github.com/dsanders11/tarfs/dircache"
	"github.com/dsanders11/tarfs/entry"
)

// MaxDepthUnlimited disables the excessive-path-depth check (spec
// §4.4): Options.MaxDepth <= 0 other than the zero value itself (which
// New replaces with the default of 1024) means unlimited.
const MaxDepthUnlimited = -1

// Options is the Go-struct form of spec §6's configuration table.
type Options struct {
	// Cwd is the extraction root. Defaults to the process's working
	// directory.
	Cwd string

	// Strip removes this many leading path segments from every entry
	// (and from a hard link's target) before anything else runs.
	Strip int

	// MaxDepth caps the number of segments a (post-strip) path may
	// have. Zero selects the default of 1024; MaxDepthUnlimited (or any
	// negative value) disables the check.
	MaxDepth int

	// PreservePaths disables the ".." and absolute-prefix-stripping
	// steps of the sanitizer; Win32 encoding still applies. The
	// defense-in-depth escape check (spec §4.4 step 6) still applies
	// regardless.
	PreservePaths bool

	// Unlink forces removal-then-recreate for every regular file,
	// skipping the nlink-based reuse decision entirely.
	Unlink bool

	// Keep causes any entry whose target already exists to be skipped
	// outright, before the newer/mtime comparison.
	Keep bool

	// Newer skips an entry whose on-disk target has a newer mtime than
	// the entry itself.
	Newer bool

	// NoMtime disables restoring the entry's recorded mtime/atime.
	NoMtime bool

	// NoChmod disables restoring the entry's recorded permission bits
	// on an existing directory that already matches in kind.
	NoChmod bool

	// ForceChown always applies DOCHOWN regardless of the entry's or
	// process's uid/gid.
	ForceChown bool

	// PreserveOwner controls whether an entry's recorded uid/gid is
	// applied when it differs from the running process's own. Nil
	// selects the default: true when the process is running as the
	// super-user, false otherwise.
	PreserveOwner *bool

	// UID/GID override every entry's owner when HasUID/HasGID is set.
	UID, GID       int
	HasUID, HasGID bool

	// DMode/FMode are the default permission bits applied to a
	// directory/file whose entry didn't carry its own mode. Zero
	// selects 0o777/0o666 respectively.
	DMode, FMode os.FileMode

	// Win32 applies the reserved-character codec (winenc) to every
	// entry path, for extracting onto an NTFS/FAT host. Link targets
	// are not encoded.
	Win32 bool

	// Transform, when set, is called once per file-like entry and may
	// return a replacement reader (e.g. to decompress or re-encode the
	// payload) that is written instead of entry.Body. A nil reader (no
	// error) means "use entry.Body unchanged".
	Transform func(e *entry.Entry) (io.Reader, error)

	// DirCache lets callers share one mkdirp cache across extractions
	// rooted at overlapping trees. A nil value gets a fresh, private
	// cache.
	DirCache *dircache.Cache

	// Sync selects the sequential-sync profile (fsx/blocking, one
	// entry materialized at a time) when true. The default, false,
	// selects the parallel-async profile (fsx/async, entries overlap
	// up to Concurrency filesystem calls in flight).
	Sync bool

	// Concurrency bounds the parallel-async profile's in-flight
	// filesystem calls. <=0 selects fsx/async.DefaultConcurrency.
	Concurrency int

	// Degraded forces the reservation scheduler's platform-degradation
	// rule (spec §4.3/§9): every entry serializes behind one sentinel
	// path instead of being scheduled per-path. Set this for
	// filesystems where path-level parallelism is unsafe (8.3 short
	// names, non-precomputable case folding, non-atomic rename).
	Degraded bool

	// OnWarn receives every non-fatal Warning. A nil value routes
	// warnings through logx instead.
	OnWarn func(Warning)

	// OnPreFinish, OnFinish, and OnEnd are the component-G lifecycle
	// hooks (spec §4.7), invoked in that order exactly once after the
	// parser has signaled end-of-archive and every reservation has
	// released.
	OnPreFinish func()
	OnFinish    func()
	OnEnd       func()
}

func (o *Options) preserveOwner(isSuperUser bool) bool {
	if o.PreserveOwner != nil {
		return *o.PreserveOwner
	}
	return isSuperUser
}
