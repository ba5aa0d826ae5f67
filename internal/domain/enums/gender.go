package enums

import "strings"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender maps stored and legacy spellings onto the three known values.
// Anything unrecognized is treated as GenderOther.
func ParseGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man", "hombre":
		return GenderMale
	case "female", "f", "woman", "mujer":
		return GenderFemale
	default:
		return GenderOther
	}
}

func (g Gender) IsBinary() bool {
	return g == GenderMale || g == GenderFemale
}

// Opposite returns the binary complement. ok is false for GenderOther.
func (g Gender) Opposite() (Gender, bool) {
	switch g {
	case GenderMale:
		return GenderFemale, true
	case GenderFemale:
		return GenderMale, true
	default:
		return "", false
	}
}
