// Package entry defines the archive-entry data model and the contract
// the upstream byte-level parser must satisfy to drive an extraction.
package entry

import (
	"io"
	"time"
)

// Kind identifies the on-disk object an Entry wants materialized.
type Kind int

const (
	// KindUnknown is the zero value; an Entry in this state is always
	// treated as unsupported.
	KindUnknown Kind = iota
	KindFile
	KindOldFile
	KindContiguousFile
	KindDirectory
	KindGNUDumpDir
	KindLink
	KindSymbolicLink
	KindCharacterDevice
	KindBlockDevice
	KindFIFO
)

// String renders the kind for log messages.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindOldFile:
		return "old-file"
	case KindContiguousFile:
		return "contiguous-file"
	case KindDirectory:
		return "directory"
	case KindGNUDumpDir:
		return "gnu-dump-dir"
	case KindLink:
		return "link"
	case KindSymbolicLink:
		return "symlink"
	case KindCharacterDevice:
		return "character-device"
	case KindBlockDevice:
		return "block-device"
	case KindFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// IsRegularFile reports whether the kind is one of the three tar
// variants that materialize a regular file.
func (k Kind) IsRegularFile() bool {
	return k == KindFile || k == KindOldFile || k == KindContiguousFile
}

// IsDirectoryLike reports whether the kind names the extraction root
// itself without replacing it (§4.4 step 7).
func (k Kind) IsDirectoryLike() bool {
	return k == KindDirectory || k == KindGNUDumpDir
}

// IsUnsupported reports whether this kind is never materialized and
// is always routed to the drain sink (component H).
func (k Kind) IsUnsupported() bool {
	switch k {
	case KindCharacterDevice, KindBlockDevice, KindFIFO, KindUnknown:
		return true
	default:
		return false
	}
}

// Entry is one record produced by the upstream parser. Segments are
// mutated only by the sanitizer (component D) before reservation; after
// that every field but Unsupported is treated as immutable.
type Entry struct {
	Kind Kind

	// Path is the archive-relative path, '/'-separated, not yet
	// platform-native. The sanitizer rewrites this in place when
	// strip/preservePaths processing removes or encodes segments.
	Path string

	// LinkPath is set for Link and SymbolicLink: an archive-relative
	// path for hard links, a literal (unresolved) target string for
	// symbolic links.
	LinkPath string

	// Mode holds the low 12 permission bits. HasMode reports whether
	// the archive set it; when HasMode is false a configured default
	// applies.
	Mode    uint32
	HasMode bool

	UID, GID       int64
	HasUID, HasGID bool

	MTime, ATime       time.Time
	HasMTime, HasATime bool

	// Size is the payload length; zero for non-file kinds.
	Size int64

	// Absolute is set by the sanitizer (component D) once the entry
	// clears path validation: the fully resolved host-filesystem path.
	Absolute string

	// Unsupported is set for device/FIFO/unknown kinds, which are
	// drained instead of being materialized.
	Unsupported bool

	// Body is the lazy payload stream for file-like kinds; nil
	// otherwise. Reading past EOF and calling Resume are both valid
	// ways to let the parser advance; a consumer that does neither
	// stalls the parser.
	Body io.Reader

	// resume is called by every Resume call; Resume does not
	// de-duplicate, so consumers call it at most once per entry.
	resume func() error
}

// NewBody attaches a payload reader and its resume callback. Parser
// implementations call this when constructing an Entry; consumers
// should use Resume, not this method.
func (e *Entry) NewBody(r io.Reader, resume func() error) {
	e.Body = r
	e.resume = resume
}

// Resume tells the parser this entry's payload has been fully
// consumed (or deliberately discarded) and it may advance to the next
// entry. Safe to call on an Entry with no body.
func (e *Entry) Resume() error {
	if e.resume == nil {
		return nil
	}
	return e.resume()
}

// Drain discards whatever remains of the entry's payload and resumes
// the parser. Used by the sanitizer's reject path and by the
// unsupported-kind sink (component H).
func (e *Entry) Drain() error {
	if e.Body != nil {
		_, _ = io.Copy(io.Discard, e.Body)
	}
	return e.Resume()
}

// Parser is the contract the byte-level tar decoder must satisfy.
// Implementations produce a finite, ordered sequence of entries ending
// with io.EOF, or an error annotated via IsUnrecoverable for a
// malformed-archive condition the core cannot proceed past.
type Parser interface {
	// Next returns the next entry, or io.EOF once the archive trailer
	// has been read.
	Next() (*Entry, error)
}

// UnrecoverableError is returned by a Parser when the archive itself is
// malformed beyond the point where extraction can continue (§6:
// BAD_ARCHIVE / ABORT).
type UnrecoverableError struct {
	Code string // "BAD_ARCHIVE" or "ABORT"
	Err  error
}

func (e *UnrecoverableError) Error() string {
	return e.Code + ": " + e.Err.Error()
}

func (e *UnrecoverableError) Unwrap() error { return e.Err }
