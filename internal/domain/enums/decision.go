package enums

import "strings"

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func ParseDecision(raw string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accept", "like", "match":
		return DecisionAccept, true
	case "reject", "dislike", "pass":
		return DecisionReject, true
	default:
		return "", false
	}
}
