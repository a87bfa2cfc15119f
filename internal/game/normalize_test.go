package game

import (
	"strings"
	"testing"
)

func TestMatchCanonicalAndAliases(t *testing.T) {
	set := NewAnswerSet("Running in the Night", []string{"RITN"})

	cases := []struct {
		guess string
		want  bool
	}{
		{"Running in the Night", true},
		{"running in the night", true},
		{"RUNNING IN THE NIGHT", true},
		{"RITN", true},
		{"ritn", true},
		{"Running in the Day", false},
		{"", false},
	}
	for _, c := range cases {
		if got := set.Match(c.guess); got != c.want {
			t.Errorf("Match(%q) = %v, want %v", c.guess, got, c.want)
		}
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	set := NewAnswerSet("Tech Noir", []string{"TechNoir '84"})

	for _, guess := range []string{"Tech Noir", "technoir '84", "tEcH nOiR"} {
		a := set.Match(guess)
		b := set.Match(strings.ToUpper(guess))
		c := set.Match(strings.ToLower(guess))
		if a != b || b != c {
			t.Errorf("case sensitivity leak for %q: %v %v %v", guess, a, b, c)
		}
		if !a {
			t.Errorf("Match(%q) = false, want true", guess)
		}
	}
}

// The variant set strips whitespace from stored names, but guesses are
// only case-folded. "TechNoir" matches because the stripped stored form
// exists; "T e c h Noir" does not, because guesses are never stripped.
func TestMatchSpacingAsymmetry(t *testing.T) {
	set := NewAnswerSet("Tech Noir", nil)

	if !set.Match("technoir") {
		t.Error("stripped stored form should match an unspaced guess")
	}
	if set.Match("t e c h noir") {
		t.Error("a re-spaced guess must not match")
	}
	if set.Match("tech  noir") {
		t.Error("a differently spaced guess must not match")
	}
}

func TestCanonical(t *testing.T) {
	set := NewAnswerSet("Sunset", []string{"sunset (radio edit)"})
	if got := set.Canonical(); got != "Sunset" {
		t.Errorf("Canonical() = %q, want %q", got, "Sunset")
	}
}
