package rules

import "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"

// CanDiscover reports whether requester may receive any candidates at all.
func CanDiscover(requester model.Profile) bool {
	if len(requester.Interests) == 0 {
		return false
	}
	return requester.Gender.IsBinary() || requester.OpenPool
}

// Discoverable is the feed predicate, minus the swipe exclusion which needs the store.
// Binary genders match their opposite; the open pool matches opted-in profiles of any
// gender among themselves. Interests must overlap in both cases.
func Discoverable(requester, candidate model.Profile) bool {
	if candidate.UserID == "" || candidate.UserID == requester.UserID {
		return false
	}
	if !InterestsIntersect(requester.Interests, candidate.Interests) {
		return false
	}
	if opposite, ok := requester.Gender.Opposite(); ok && candidate.Gender == opposite {
		return true
	}
	return requester.OpenPool && candidate.OpenPool
}
