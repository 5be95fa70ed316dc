package extract

import (
	"github.com/dsanders11/tarfs/dircache"
	"github.com/dsanders11/tarfs/fsx"
)

// dircacheFS adapts an fsx.FS to dircache.FS. Embedding inherits
// Lstat/Mkdir/Chmod/Unlink unchanged since their signatures already
// match; only Chown needs an explicit override for fsx.FS's extra
// useFd parameter, which a directory chown never needs (directories
// are never opened for an fd-based chown).
type dircacheFS struct{ fsx.FS }

var _ dircache.FS = dircacheFS{}

func (d dircacheFS) Chown(path string, uid, gid int) error {
	return d.FS.Chown(path, uid, gid, false)
}
