// Package version handles the two version strings this module deals in:
// the build version stamped into the binary via ldflags, and the envelope
// format version carried in every token's "version" field. Both are plain
// dotted-numeric strings; there is no network-facing release machinery
// here.
package version

import (
	"strings"
)

// Parse splits a dotted version string into its numeric fields, tolerating
// a leading "v" and a pre-release suffix ("0.2.0-rc1" parses as 0.2.0).
// The second return is false for anything that isn't version-shaped, such
// as "dev" or a bare commit hash.
func Parse(v string) ([]int, bool) {
	v = Normalize(v)
	if v == "" {
		return nil, false
	}
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	parts := strings.Split(v, ".")
	fields := make([]int, 0, len(parts))
	for _, p := range parts {
		n, ok := atoi(p)
		if !ok {
			return nil, false
		}
		fields = append(fields, n)
	}
	return fields, true
}

// Normalize strips the leading v/V tag prefix and surrounding whitespace.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') {
		return v[1:]
	}
	return v
}

// Compare orders two version strings: -1 if a < b, 0 if equal, 1 if a > b.
// Missing fields compare as zero, so "0.1" equals "0.1.0". Unparseable
// versions (dev builds, commit hashes) sort below every real version.
func Compare(a, b string) int {
	af, aOK := Parse(a)
	bf, bOK := Parse(b)
	if !aOK || !bOK {
		switch {
		case aOK:
			return 1
		case bOK:
			return -1
		default:
			return 0
		}
	}

	n := len(af)
	if len(bf) > n {
		n = len(bf)
	}
	for i := 0; i < n; i++ {
		av, bv := field(af, i), field(bf, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsDev reports whether v names an unreleased build: empty, "dev",
// "unknown", or a bare hex commit hash.
func IsDev(v string) bool {
	v = Normalize(v)
	switch v {
	case "", "dev", "unknown":
		return true
	}
	if len(v) >= 7 && isHex(v) {
		return true
	}
	return false
}

// EnvelopeCompatible reports whether a token minted under tokenVersion can
// be verified by an engine whose envelope format is engineVersion. Under
// the 0.x convention the minor field acts as the breaking-change number,
// so 0.1.x and 0.2.x envelopes are not interchangeable. An empty token
// version is accepted for tokens minted before the field existed.
func EnvelopeCompatible(tokenVersion, engineVersion string) bool {
	if strings.TrimSpace(tokenVersion) == "" {
		return true
	}
	tf, ok := Parse(tokenVersion)
	if !ok {
		return false
	}
	ef, ok := Parse(engineVersion)
	if !ok {
		return false
	}
	if field(tf, 0) != field(ef, 0) {
		return false
	}
	if field(tf, 0) == 0 && field(tf, 1) != field(ef, 1) {
		return false
	}
	return true
}

func field(fields []int, i int) int {
	if i < len(fields) {
		return fields[i]
	}
	return 0
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
