package identity

import (
	"regexp"
	"strings"
)

// CanonicalID is a normalized identity key produced from a raw plate or
// device ID. It is used only for cross-source correlation and is never shown
// to the user in place of the original label.
type CanonicalID string

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)
	// Plate shape: 2 letters, 1-2 digits, 1-2 letters, 3-4 digits.
	platePattern = regexp.MustCompile(`[A-Z]{2}[0-9]{1,2}[A-Z]{1,2}[0-9]{3,4}`)
)

// Matching bounds. Changing either is a behavior change and requires
// re-verifying the matcher property tests.
const (
	minMatchLen = 5
	maxLenDiff  = 3
)

// Canonicalize uppercases the raw identifier, strips everything outside
// [A-Z0-9], and reduces it to a plate-shaped substring when one is present.
// Without a plate match the full stripped string is the canonical form.
func Canonicalize(raw string) CanonicalID {
	stripped := nonAlphanumeric.ReplaceAllString(strings.ToUpper(raw), "")
	if plate := platePattern.FindString(stripped); plate != "" {
		return CanonicalID(plate)
	}
	return CanonicalID(stripped)
}

// Match reports whether two raw identifiers plausibly name the same physical
// vehicle. Exact canonical equality always matches. Otherwise the shorter
// canonical form must be at least 5 characters long, within 3 characters of
// the longer, and a prefix or suffix of it. Upstream systems pad and truncate
// the same plate inconsistently; the bounds trade precision for recall.
//
// Match is symmetric. It is not transitive: two pairwise matches do not imply
// the third pair matches.
func Match(a, b string) bool {
	ca := string(Canonicalize(a))
	cb := string(Canonicalize(b))
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	shorter, longer := ca, cb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < minMatchLen {
		return false
	}
	if len(longer)-len(shorter) > maxLenDiff {
		return false
	}
	return strings.HasPrefix(longer, shorter) || strings.HasSuffix(longer, shorter)
}
