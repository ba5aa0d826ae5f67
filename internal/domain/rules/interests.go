package rules

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeInterest folds case and composes to NFC so "Música", "MÚSICA" and the
// decomposed spelling compare equal. Inner whitespace is collapsed.
func NormalizeInterest(raw string) string {
	trimmed := strings.Join(strings.Fields(raw), " ")
	if trimmed == "" {
		return ""
	}
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(trimmed)))
}

// NormalizeInterests normalizes and deduplicates tags, keeping first-seen order.
func NormalizeInterests(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		tag := NormalizeInterest(item)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SharedInterests returns the tags of a that also appear in b. Both inputs must
// already be normalized.
func SharedInterests(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, tag := range b {
		set[tag] = struct{}{}
	}
	var shared []string
	for _, tag := range a {
		if _, ok := set[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}

func InterestsIntersect(a, b []string) bool {
	return len(SharedInterests(a, b)) > 0
}
