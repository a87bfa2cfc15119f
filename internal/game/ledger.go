package game

import "sort"

// Score is one row of a leaderboard snapshot
type Score struct {
	Participant string `json:"participant"`
	Points      int    `json:"points"`
}

// Ledger tracks per-participant scores for the lifetime of one session.
// Scores only ever go up; leaving the session does not remove an entry.
type Ledger struct {
	points map[string]int
	order  []string // insertion order, used as the tie-break in Rank
}

// NewLedger creates an empty score ledger
func NewLedger() *Ledger {
	return &Ledger{points: make(map[string]int)}
}

// Credit adds one point to a participant, creating the entry if absent
func (l *Ledger) Credit(participant string) {
	if _, ok := l.points[participant]; !ok {
		l.points[participant] = 0
		l.order = append(l.order, participant)
	}
	l.points[participant]++
}

// Points returns a participant's current score
func (l *Ledger) Points(participant string) int {
	return l.points[participant]
}

// Empty reports whether nobody has scored yet
func (l *Ledger) Empty() bool {
	return len(l.points) == 0
}

// Rank returns scores in descending order, ties kept in insertion order
func (l *Ledger) Rank() []Score {
	ranked := make([]Score, 0, len(l.order))
	for _, p := range l.order {
		ranked = append(ranked, Score{Participant: p, Points: l.points[p]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Points > ranked[j].Points
	})
	return ranked
}
