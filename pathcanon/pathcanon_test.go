package pathcanon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTrailingSlashes(t *testing.T) {
	assert.Equal(t, "/", StripTrailingSlashes("/"))
	assert.Equal(t, "/a/b", StripTrailingSlashes("/a/b///"))
	assert.Equal(t, "a", StripTrailingSlashes("a/"))
}

func TestStripAbsoluteUnix(t *testing.T) {
	prefix, rest := StripAbsolute("/a/b")
	assert.Equal(t, "/", prefix)
	assert.Equal(t, "a/b", rest)

	prefix, rest = StripAbsolute("a/b")
	assert.Equal(t, "", prefix)
	assert.Equal(t, "a/b", rest)
}

func TestStripAbsoluteDriveLetter(t *testing.T) {
	prefix, rest := StripAbsolute("C:/a/b")
	assert.Equal(t, "C:/", prefix)
	assert.Equal(t, "a/b", rest)
}

func TestStripAbsoluteUNC(t *testing.T) {
	prefix, rest := StripAbsolute("//host/share/a/b")
	assert.Equal(t, "//host/share/", prefix)
	assert.Equal(t, "a/b", rest)
}

func TestCacheKeyLowercasesAndNormalizes(t *testing.T) {
	assert.Equal(t, CacheKey("/A/B/"), CacheKey("/a/b"))
}

func TestCacheKeyIdempotent(t *testing.T) {
	for _, p := range []string{"/a/B/c/", "relative/Path", "/", "C:/Foo/"} {
		assert.True(t, Idempotent(p), "not idempotent: %q", p)
	}
}
