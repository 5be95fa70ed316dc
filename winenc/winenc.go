// Package winenc implements the reversible Windows-reserved-character
// codec from spec §4.1: each of <>:"|?* is mapped to its Unicode
// private-use-area twin at 0xF000+codepoint so archive names illegal
// on other platforms survive a round trip through a Windows host
// filesystem. Modeled on rclone's encoder.MultiEncoder idiom
// (see DESIGN.md — the source package wasn't retrieved in the pack,
// so the table below is written directly from the spec).
package winenc

import "strings"

const privateUseBase = 0xF000

var reserved = []rune{'<', '>', ':', '"', '|', '?', '*'}

func isReserved(r rune) bool {
	for _, c := range reserved {
		if c == r {
			return true
		}
	}
	return false
}

// Encode maps each reserved character in s to its private-use-area
// twin. Callers are expected to apply this only to the portion of a
// path after any drive-letter root (spec §4.4 step 8).
func Encode(s string) string {
	if !strings.ContainsAny(s, string(reserved)) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isReserved(r) {
			b.WriteRune(privateUseBase + r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decode reverses Encode, mapping private-use-area codepoints back to
// their original reserved character.
func Decode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= privateUseBase && r < privateUseBase+0x110000 {
			orig := r - privateUseBase
			if isReserved(orig) {
				b.WriteRune(orig)
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
