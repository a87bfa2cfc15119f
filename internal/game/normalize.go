package game

import "strings"

// AnswerSet holds the acceptable textual variants for one track's answer.
// It is built once per round from the canonical title and its aliases.
type AnswerSet struct {
	canonical string
	variants  map[string]struct{}
}

// NewAnswerSet builds the variant set for a title and its aliases. Every
// stored name contributes four forms: as-is, case-folded, whitespace
// stripped, and case-folded-and-stripped. Guesses are only case-folded
// before lookup, so spacing in the guess must match one of the stored
// forms.
func NewAnswerSet(title string, aliases []string) *AnswerSet {
	s := &AnswerSet{
		canonical: title,
		variants:  make(map[string]struct{}),
	}
	s.add(title)
	for _, a := range aliases {
		s.add(a)
	}
	return s
}

func (s *AnswerSet) add(name string) {
	stripped := stripSpace(name)
	s.variants[name] = struct{}{}
	s.variants[strings.ToLower(name)] = struct{}{}
	s.variants[stripped] = struct{}{}
	s.variants[strings.ToLower(stripped)] = struct{}{}
}

// Match reports whether a raw guess is an accepted answer
func (s *AnswerSet) Match(guess string) bool {
	_, ok := s.variants[strings.ToLower(guess)]
	return ok
}

// Canonical returns the canonical title revealed to the room
func (s *AnswerSet) Canonical() string {
	return s.canonical
}

func stripSpace(v string) string {
	return strings.Join(strings.Fields(v), "")
}
