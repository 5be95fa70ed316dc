// Package extract wires the engine's components together: the
// sanitizer (D), the path reservation scheduler (C, from package
// reserve), the FS reconciler (E) and materializer (F), and the
// completion tracker (G). Extractor.Run drives an entry.Parser to
// completion against either concurrency profile spec §5 describes.
//
// Grounded on backend/local/local.go's Object.Update (file write plus
// preallocate/mtime/chown tail) and Mkdir (directory case),
// lchmod_unix.go/lchtimes_unix.go (timestamp/mode restoration), and
// linkinfo_unix.go (nlink-based reuse decision); and on
// meigma-blobber/internal/archive/extract.go for the cached-parent-
// mkdir flow (see DESIGN.md). Symlinks and hard links are created
// directly at the entry's path: there is no temporary name and rename,
// and no same-filesystem or same-file check before linking.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dsanders11/tarfs/dircache"
	"github.com/dsanders11/tarfs/entry"
	"github.com/dsanders11/tarfs/fsx"
	"github.com/dsanders11/tarfs/fsx/async"
	"github.com/dsanders11/tarfs/fsx/blocking"
	"github.com/dsanders11/tarfs/logx"
	"github.com/dsanders11/tarfs/reserve"
)

// Extractor drives a single extraction of an archive into a directory
// tree. Construct with New and drive with Run; an Extractor is used
// once.
type Extractor struct {
	opt Options

	cwd           string // cleaned, absolute, '/'-separated, no trailing slash
	fs            fsx.FS
	dcfs          dircache.FS
	sched         *reserve.Scheduler
	dirCache      *dircache.Cache
	tracker       *Tracker
	preserveOwner bool

	cwdOnce sync.Once
	cwdErr  error

	fatalMu  sync.Mutex
	fatalErr error

	processUID, processGID int
}

// New constructs an Extractor ready to Run.
func New(opt Options) (*Extractor, error) {
	if opt.Cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opt.Cwd = wd
	}
	if opt.MaxDepth == 0 {
		opt.MaxDepth = 1024
	}

	abs, err := filepath.Abs(opt.Cwd)
	if err != nil {
		return nil, err
	}
	cwd := filepath.ToSlash(filepath.Clean(abs))

	dc := opt.DirCache
	if dc == nil {
		dc = dircache.New()
	}

	var fsys fsx.FS
	if opt.Sync {
		fsys = blocking.FS{}
	} else {
		fsys = async.New(opt.Concurrency)
	}

	uid, gid := os.Getuid(), os.Getgid()

	x := &Extractor{
		opt:           opt,
		cwd:           cwd,
		fs:            fsys,
		dcfs:          dircacheFS{fsys},
		sched:         reserve.New(opt.Degraded),
		dirCache:      dc,
		tracker:       NewTracker(),
		preserveOwner: opt.preserveOwner(uid == 0),
		processUID:    uid,
		processGID:    gid,
	}
	x.tracker.OnPreFinish = opt.OnPreFinish
	x.tracker.OnFinish = opt.OnFinish
	x.tracker.OnEnd = opt.OnEnd
	return x, nil
}

// Run drains p, extracting every entry it produces. It returns nil
// once the archive is fully processed, or the error that made
// extraction unrecoverable: a CwdError from the extraction root itself,
// or a Parser error carrying BAD_ARCHIVE/ABORT. Per-entry failures
// never stop the archive; they're reported through Options.OnWarn (or
// logx, if unset) and that entry alone is skipped.
func (x *Extractor) Run(p entry.Parser) error {
	var runErr error

loop:
	for {
		if ferr := x.getFatal(); ferr != nil {
			runErr = ferr
			break loop
		}

		e, err := p.Next()
		if errors.Is(err, io.EOF) {
			break loop
		}
		if err != nil {
			var unrec *entry.UnrecoverableError
			if errors.As(err, &unrec) {
				x.emitWarning(Warning{Code: unrec.Code, Message: unrec.Err.Error(), Recoverable: false})
			}
			runErr = err
			break loop
		}

		if !x.sanitize(e) {
			if derr := e.Drain(); derr != nil {
				logx.Debugf(pathContext(e.Path), "drain after reject failed: %v", derr)
			}
			continue
		}

		if e.Kind.IsUnsupported() {
			e.Unsupported = true
			x.warn("ENTRY_UNSUPPORTED", "unsupported entry kind: "+e.Kind.String(), e.Path)
			if derr := e.Drain(); derr != nil {
				logx.Debugf(pathContext(e.Path), "drain unsupported failed: %v", derr)
			}
			continue
		}

		x.dispatch(e)
	}

	x.tracker.End()
	x.tracker.Wait()
	if runErr == nil {
		runErr = x.getFatal()
	}
	return runErr
}

// dispatch reserves e's path (and, for a hard link, its target too)
// and runs handleEntry once the reservation is eligible. In the
// sequential-sync profile it blocks until that handler has completed,
// so no two entries are ever materialized concurrently; in the
// parallel-async profile it returns immediately and lets the scheduler
// overlap independent entries.
func (x *Extractor) dispatch(e *entry.Entry) {
	paths := x.reservationPaths(e)
	x.tracker.Begin()

	handler := func(release func()) {
		defer func() {
			release()
			x.tracker.Done()
		}()
		x.handleEntry(e)
	}

	if x.opt.Sync {
		done := make(chan struct{})
		x.sched.Reserve(paths, func(release func()) {
			handler(release)
			close(done)
		})
		<-done
		return
	}

	x.sched.Reserve(paths, handler)
}

func (x *Extractor) reservationPaths(e *entry.Entry) []string {
	if e.Kind == entry.KindLink && e.LinkPath != "" {
		target := filepath.ToSlash(filepath.Join(x.cwd, filepath.FromSlash(e.LinkPath)))
		return []string{e.Absolute, target}
	}
	return []string{e.Absolute}
}

func (x *Extractor) handleEntry(e *entry.Entry) {
	action, err := x.reconcile(e)
	if err != nil {
		var cwdErr *dircache.CwdError
		if errors.As(err, &cwdErr) {
			x.setFatal(err)
			x.emitWarning(Warning{Code: "CwdError", Message: err.Error(), Path: e.Path})
		} else {
			x.warnErr("ENTRY_ERROR", e.Path, err)
		}
		if derr := e.Drain(); derr != nil {
			logx.Debugf(pathContext(e.Path), "drain after reconcile error failed: %v", derr)
		}
		return
	}

	if action == actionSkip {
		if derr := e.Drain(); derr != nil {
			logx.Debugf(pathContext(e.Path), "drain after skip failed: %v", derr)
		}
		return
	}

	if err := x.materialize(e, action); err != nil {
		x.warnErr("ENTRY_ERROR", e.Path, err)
		_ = e.Drain()
	}
}

func (x *Extractor) setFatal(err error) {
	x.fatalMu.Lock()
	if x.fatalErr == nil {
		x.fatalErr = err
	}
	x.fatalMu.Unlock()
}

func (x *Extractor) getFatal() error {
	x.fatalMu.Lock()
	defer x.fatalMu.Unlock()
	return x.fatalErr
}

func (x *Extractor) warn(code, message, path string) {
	x.emitWarning(Warning{Code: code, Message: message, Path: path, Recoverable: true})
}

func (x *Extractor) warnf(code, path, format string, args ...any) {
	x.warn(code, fmt.Sprintf(format, args...), path)
}

// warnErr wraps err in an EntryError before warning, so a caller that
// wants the underlying *os.PathError back can errors.As/Unwrap through
// the Warning's Err field instead of re-parsing the message string.
func (x *Extractor) warnErr(code, path string, err error) {
	ee := &EntryError{Path: path, Err: err}
	x.emitWarning(Warning{Code: code, Message: ee.Error(), Path: path, Recoverable: true, Err: ee})
}

func (x *Extractor) emitWarning(w Warning) {
	if x.opt.OnWarn != nil {
		x.opt.OnWarn(w)
		return
	}
	logx.Logf(pathContext(w.Path), "%s: %s", w.Code, w.Message)
}

func pathContext(path string) logx.Context {
	if path == "" {
		return nil
	}
	return logx.StringContext(path)
}
