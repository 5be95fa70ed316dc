//go:build windows || plan9

package fsx

import "io/fs"

// Windows and plan9 FileInfo.Sys() values don't carry a POSIX nlink;
// the reconciler treats this as "reuse not safe" (spec §9 open
// question, resolved as a capability probe — see fsx.FS.SupportsReuse).
func nlinkFromSys(info fs.FileInfo) (uint64, bool) {
	return 0, false
}
