package extract

import (
	"strings"

	"github.com/dsanders11/tarfs/pathcanon"
	"github.com/dsanders11/tarfs/winenc"
)

func splitSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinSegments(segs []string) string {
	return strings.Join(segs, "/")
}

func isAbsolutePath(p string) bool {
	prefix, _ := pathcanon.StripAbsolute(p)
	return prefix != ""
}

// winEncodePastDriveRoot applies the winenc round-trip codec to
// everything after a leading root prefix (drive letter, UNC share, or
// unix "/"), leaving the root itself untouched.
func winEncodePastDriveRoot(p string) string {
	prefix, remainder := pathcanon.StripAbsolute(p)
	return prefix + winenc.Encode(remainder)
}
