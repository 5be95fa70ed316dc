// Package pathcanon implements the pure path-canonicalization rules
// (component A) used both by the reservation scheduler, to decide
// whether two paths name the same filesystem object, and by the entry
// sanitizer, to strip absolute prefixes and trailing slashes.
package pathcanon

import (
	"runtime"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// StripTrailingSlashes removes any number of trailing '/' from p,
// except when p is exactly "/".
func StripTrailingSlashes(p string) string {
	if p == "/" {
		return p
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// NormalizeSeparators replaces '\' with '/' uniformly on Windows; it is
// a no-op elsewhere.
func NormalizeSeparators(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(p, `\`, "/")
	}
	return p
}

// StripAbsolute returns (rootPrefix, remainder) where rootPrefix is ""
// if p is already relative, else the leading "/", a drive letter with
// colon and slash ("C:/"), or a UNC prefix ("//host/share/").
func StripAbsolute(p string) (rootPrefix, remainder string) {
	p = NormalizeSeparators(p)
	if strings.HasPrefix(p, "//") && len(p) > 2 {
		// UNC: //host/share/rest
		rest := p[2:]
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) >= 2 {
			prefix := "//" + parts[0] + "/" + parts[1] + "/"
			remainder := ""
			if len(parts) == 3 {
				remainder = parts[2]
			}
			return prefix, remainder
		}
	}
	if len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && p[2] == '/' {
		return p[:3], p[3:]
	}
	if len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' {
		return p[:2] + "/", p[2:]
	}
	if strings.HasPrefix(p, "/") {
		return "/", strings.TrimPrefix(p, "/")
	}
	return "", p
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// normCache memoizes unicode normalization: it is applied to every
// reserved path and is worth amortizing per spec §4.1.
var normCache sync.Map // map[string]string

// NormalizeUnicode applies canonical composition (NFC) to p so that
// canonically equivalent spellings of a path collide in the scheduler
// and in cache keys. It does not fold case; CacheKey lower-cases
// separately. Grounded on backend/local's
// `norm.NFC.String(filename)` call (see DESIGN.md).
func NormalizeUnicode(p string) string {
	if v, ok := normCache.Load(p); ok {
		return v.(string)
	}
	out := norm.NFC.String(p)
	normCache.Store(p, out)
	return out
}

// CacheKey composes strip-trailing-slashes, normalize-separators,
// normalize-unicode, then lower-cases the result. This is the
// canonical form the reservation scheduler and the directory cache key
// their maps on.
func CacheKey(p string) string {
	p = NormalizeSeparators(p)
	p = StripTrailingSlashes(p)
	p = NormalizeUnicode(p)
	return strings.ToLower(p)
}

// Idempotent reports whether CacheKey(CacheKey(p)) == CacheKey(p),
// exercised directly by tests to pin the law spec §8 requires.
func Idempotent(p string) bool {
	return CacheKey(CacheKey(p)) == CacheKey(p)
}
