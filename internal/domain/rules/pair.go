package rules

import (
	"regexp"
	"strings"
)

const pairSeparator = "_"

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,128}$`)

// ValidUserID reports whether id can take part in a canonical pair id. The separator
// is excluded from the alphabet so a pair id always splits back unambiguously.
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// OrderedPair returns the two ids in ascending byte order.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairID derives the conversation id for an unordered pair. Both participants compute
// the same value regardless of argument order.
func PairID(a, b string) string {
	lo, hi := OrderedPair(a, b)
	return lo + pairSeparator + hi
}

// SplitPairID is the inverse of PairID. ok is false for anything PairID could not
// have produced from two distinct valid ids.
func SplitPairID(id string) (string, string, bool) {
	lo, hi, found := strings.Cut(id, pairSeparator)
	if !found || !ValidUserID(lo) || !ValidUserID(hi) {
		return "", "", false
	}
	if lo >= hi {
		return "", "", false
	}
	return lo, hi, true
}
