package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
)

const (
	isoDateLayout    = "2006-01-02"
	legacyDateLayout = "02/01/2006"
)

// ParseBirthdate accepts ISO dates, the legacy DD/MM/YYYY form and RFC 3339
// timestamps. The result is the calendar date at UTC midnight; an empty input
// yields nil.
func ParseBirthdate(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var (
		parsed time.Time
		err    error
	)
	switch {
	case strings.Contains(raw, "/"):
		parsed, err = time.Parse(legacyDateLayout, raw)
	case len(raw) == len(isoDateLayout):
		parsed, err = time.Parse(isoDateLayout, raw)
	default:
		parsed, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: birthdate %q", errs.ErrValidation, raw)
	}

	date := CalendarDate(parsed)
	if date.After(now.UTC()) {
		return nil, fmt.Errorf("%w: birthdate %q is in the future", errs.ErrValidation, raw)
	}
	return &date, nil
}

// CalendarDate keeps the wall-clock date of t in its own location and drops the rest.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatBirthdate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(isoDateLayout)
}

// AgeAt returns completed years between birth and now.
func AgeAt(birth, now time.Time) int {
	if birth.IsZero() {
		return 0
	}
	now = now.UTC()
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
