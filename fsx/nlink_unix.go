//go:build !windows && !plan9

package fsx

import (
	"io/fs"
	"syscall"

	"github.com/dsanders11/tarfs/logx"
)

// Grounded on backend/local/linkinfo_unix.go's getHLinkInfo, which
// recovers *syscall.Stat_t from FileInfo.Sys() the same way.
func nlinkFromSys(info fs.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		logx.Debugf(nil, "stat info did not carry a *syscall.Stat_t as expected")
		return 0, false
	}
	return uint64(st.Nlink), true
}
