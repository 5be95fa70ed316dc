package extract

import "fmt"

// Warning is delivered to Options.OnWarn for every condition the
// extractor reports: a rejected entry, a reconcile failure that only
// costs that one entry, an unsupported entry kind, and also the fatal
// CwdError and BAD_ARCHIVE/ABORT conditions. Recoverable is false for
// those fatal ones: the BAD_ARCHIVE/ABORT codes a Parser raises when
// the archive itself cannot be read further, and the CwdError warning.
type Warning struct {
	Code        string
	Message     string
	Path        string
	Recoverable bool

	// Err is the underlying error an ENTRY_ERROR warning wraps (an
	// *EntryError), or nil for warnings that have no underlying Go
	// error (ENTRY_INFO, ENTRY_UNSUPPORTED, CwdError uses its own path
	// since it is also delivered as the fatal Run error).
	Err error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Code, w.Message, w.Path)
}

// EntryError wraps a per-entry filesystem failure raised by the
// reconciler or materializer with the path it happened at.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *EntryError) Unwrap() error  { return e.Err }
