package enums

import "testing"

func TestParseGenderLegacySpellings(t *testing.T) {
	cases := map[string]Gender{
		"HOMBRE": GenderMale,
		" male ": GenderMale,
		"Mujer":  GenderFemale,
		"f":      GenderFemale,
		"":       GenderOther,
		"nonbin": GenderOther,
		"other":  GenderOther,
		"WOMAN":  GenderFemale,
		"m":      GenderMale,
	}
	for raw, want := range cases {
		if got := ParseGender(raw); got != want {
			t.Fatalf("ParseGender(%q): got %q want %q", raw, got, want)
		}
	}
}

func TestGenderOpposite(t *testing.T) {
	if g, ok := GenderMale.Opposite(); !ok || g != GenderFemale {
		t.Fatalf("unexpected opposite for male: %q %v", g, ok)
	}
	if g, ok := GenderFemale.Opposite(); !ok || g != GenderMale {
		t.Fatalf("unexpected opposite for female: %q %v", g, ok)
	}
	if _, ok := GenderOther.Opposite(); ok {
		t.Fatalf("other must not have a binary opposite")
	}
}

func TestParseDecisionAliases(t *testing.T) {
	for _, raw := range []string{"accept", "LIKE", "match"} {
		if d, ok := ParseDecision(raw); !ok || d != DecisionAccept {
			t.Fatalf("ParseDecision(%q): got %q %v", raw, d, ok)
		}
	}
	for _, raw := range []string{"reject", "dislike", " Pass "} {
		if d, ok := ParseDecision(raw); !ok || d != DecisionReject {
			t.Fatalf("ParseDecision(%q): got %q %v", raw, d, ok)
		}
	}
	if _, ok := ParseDecision("superlike"); ok {
		t.Fatalf("expected unknown decision to be rejected")
	}
}
