package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
)

func TestParseBirthdateFormats(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	want := time.Date(1999, time.May, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
	}{
		{name: "iso", raw: "1999-05-10"},
		{name: "legacy", raw: "10/05/1999"},
		{name: "rfc3339_utc", raw: "1999-05-10T00:00:00Z"},
		{name: "rfc3339_positive_offset", raw: "1999-05-10T00:30:00+02:00"},
		{name: "padded", raw: "  1999-05-10 "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBirthdate(tc.raw, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, want.Equal(*got), "got %s", got)
		})
	}
}

func TestParseBirthdateEmptyAndInvalid(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseBirthdate("", now)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, raw := range []string{"31/02/2000", "1999-13-01", "yesterday", "2030-01-01"} {
		_, err := ParseBirthdate(raw, now)
		assert.ErrorIsf(t, err, errs.ErrValidation, "raw=%q", raw)
	}
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 25, AgeAt(birth, time.Date(2026, time.June, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, AgeAt(birth, time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeAt(time.Time{}, time.Now()))
}

func TestFormatBirthdate(t *testing.T) {
	d := time.Date(1999, time.May, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1999-05-10", FormatBirthdate(&d))
	assert.Equal(t, "", FormatBirthdate(nil))
}
