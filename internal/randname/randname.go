// Package randname generates the random suffix used by the
// non-atomic-unlink workaround (spec §4.5, §9): renaming a path to
// "<path>.DELETE.<hex>" before unlinking it, so a concurrent create of
// the original name on a platform that commits directory-entry removal
// lazily cannot race the replacement.
package randname

import "github.com/google/uuid"

// Suffix returns the 16 bytes of a random (version 4) UUID rendered as
// hex, suitable for appending after ".DELETE.". 122 of those 128 bits
// come from a CSPRNG; the other 6 are the UUID's fixed version and
// variant bits.
func Suffix() string {
	id := uuid.New()
	b := id[:]
	const hex = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hex[c>>4]
		out[i*2+1] = hex[c&0x0f]
	}
	return string(out)
}
