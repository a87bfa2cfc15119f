package game

import "strings"

// MessageKind classifies a room message before dispatch
type MessageKind int

const (
	// AnswerAttempt is any regular chat text, evaluated against the
	// current round's answer set.
	AnswerAttempt MessageKind = iota
	// SkipVote is a recognized skip keyword or shortcut
	SkipVote
)

// skip keywords, matched after trimming and case folding
var skipWords = map[string]struct{}{
	"skip":  {},
	"!skip": {},
	"s":     {},
}

// Classify tags a raw room message as a skip vote or an answer attempt
func Classify(text string) MessageKind {
	if _, ok := skipWords[strings.ToLower(strings.TrimSpace(text))]; ok {
		return SkipVote
	}
	return AnswerAttempt
}
