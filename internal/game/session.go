package game

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"clipquiz/internal/model"
)

type phase int

const (
	phasePreparing phase = iota
	phasePlaying
	phaseResolved
)

// Participant is a room member registered to answer and vote
type Participant struct {
	ID       string    `json:"id"`
	JoinedAt time.Time `json:"joinedAt"`
}

// session is one live quiz in one room. All state is guarded by mu; the
// timer callbacks re-enter through it. gen is bumped every time a round
// is prepared or resolved, so a stale timer or vote that lost the race
// to resolve a round is a no-op.
type session struct {
	mu  sync.Mutex
	mgr *Manager

	room        string
	moderator   string
	packName    string
	voiceTarget string

	tracks []model.Track // shuffled copy, immutable after start
	idx    int
	gen    int
	phase  phase

	answers      *AnswerSet
	participants map[string]Participant
	skipVotes    map[string]struct{}
	ledger       *Ledger

	timer    *time.Timer // round timeout
	gapTimer *time.Timer // delay before the next round

	voice        VoiceConn
	cancelStream context.CancelFunc

	ended bool
}

// startRound prepares and plays the track at the current index, or ends
// the session when the pack is exhausted. Caller holds s.mu.
func (s *session) startRound() {
	if s.ended {
		return
	}
	if s.idx >= len(s.tracks) {
		s.endLocked("That's the end of the quiz!")
		return
	}

	s.gen++
	s.phase = phasePreparing
	s.skipVotes = make(map[string]struct{})

	track := s.tracks[s.idx]
	s.answers = NewAnswerSet(track.Title, track.Aliases)

	limit := s.mgr.opts.MaxTrackDuration
	if track.LengthSec != model.TrackLengthFull {
		if d := time.Duration(track.LengthSec) * time.Second; d < limit {
			limit = d
		}
	}

	relay := NewRelay()
	ctx, cancel := context.WithCancel(context.Background())
	offset := time.Duration(track.OffsetSec) * time.Second
	if err := s.mgr.extractor.Open(ctx, track.Locator, offset, limit, relay); err != nil {
		cancel()
		log.Printf("room %s: track %d unplayable: %v", s.room, s.idx+1, err)
		s.mgr.announce.Announce(s.room, fmt.Sprintf("Track %d can't be played, skipping it.", s.idx+1))
		s.phase = phaseResolved
		s.scheduleNext()
		return
	}
	s.cancelStream = cancel

	s.voice.Play(relay)
	s.phase = phasePlaying
	gen := s.gen
	s.timer = time.AfterFunc(limit, func() { s.onTimeout(gen) })

	s.mgr.announce.Announce(s.room, fmt.Sprintf("Round %d of %d — name the track!", s.idx+1, len(s.tracks)))
}

// resolveGate is the single-writer gate for round resolution: it returns
// true for exactly one caller per round. Winning the gate stops the
// round timer and clears the vote set.
func (s *session) resolveGate(gen int) bool {
	if s.ended || gen != s.gen || s.phase != phasePlaying {
		return false
	}
	s.phase = phaseResolved
	if s.timer != nil {
		s.timer.Stop()
	}
	s.skipVotes = make(map[string]struct{})
	return true
}

func (s *session) onTimeout(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolveGate(gen) {
		return
	}
	s.stopPipeline()
	track := s.tracks[s.idx]
	s.mgr.announce.Announce(s.room, fmt.Sprintf("Time's up! That was %s — %s.", track.Artist, track.Title))
	s.scheduleNext()
}

// handleMessage evaluates one room message as an answer or a skip vote.
// Non-participants are ignored silently.
func (s *session) handleMessage(participant, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if _, ok := s.participants[participant]; !ok {
		return
	}

	switch Classify(text) {
	case SkipVote:
		s.castSkipVote(participant)
	case AnswerAttempt:
		s.tryAnswer(participant, strings.TrimSpace(text))
	}
}

func (s *session) castSkipVote(participant string) {
	// Votes count while a round plays, and during the gap after a
	// correct answer to fast-forward past the rest of the clip.
	if s.phase != phasePlaying && s.phase != phaseResolved {
		return
	}
	if _, voted := s.skipVotes[participant]; voted {
		return
	}
	s.skipVotes[participant] = struct{}{}
	needed := len(s.participants)/2 + 1

	if s.phase == phasePlaying {
		if len(s.skipVotes) >= needed {
			s.resolveSkipped()
			return
		}
		s.mgr.announce.Announce(s.room, fmt.Sprintf("%s votes to skip (%d/%d needed).", participant, len(s.skipVotes), needed))
		return
	}

	// Gap fast-forward: the round is already resolved, a majority just
	// cuts the wait short.
	if len(s.skipVotes) >= needed {
		if s.gapTimer != nil {
			s.gapTimer.Stop()
		}
		s.stopPipeline()
		s.startRound()
	}
}

func (s *session) resolveSkipped() {
	if !s.resolveGate(s.gen) {
		return
	}
	s.stopPipeline()
	track := s.tracks[s.idx]
	s.mgr.announce.Announce(s.room, fmt.Sprintf("Skipped by vote. That was %s — %s.", track.Artist, track.Title))
	s.scheduleNext()
}

func (s *session) tryAnswer(participant, guess string) {
	if s.phase != phasePlaying || !s.answers.Match(guess) {
		return
	}
	if !s.resolveGate(s.gen) {
		return
	}
	s.ledger.Credit(participant)
	track := s.tracks[s.idx]
	s.mgr.announce.Announce(s.room, fmt.Sprintf("%s got it! %s — %s (%d points). Vote skip to jump to the next round.",
		participant, track.Artist, track.Title, s.ledger.Points(participant)))
	// The clip keeps playing through the gap; scheduleNext tears it down.
	s.scheduleNext()
}

// scheduleNext advances the round index and arms the inter-round gap.
// Caller holds s.mu and has already resolved the current round.
func (s *session) scheduleNext() {
	s.idx++
	gen := s.gen
	s.gapTimer = time.AfterFunc(s.mgr.opts.RoundGap, func() { s.onGap(gen) })
}

func (s *session) onGap(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || gen != s.gen || s.phase != phaseResolved {
		return
	}
	// Round n's pipeline is fully torn down before round n+1 starts.
	s.stopPipeline()
	s.startRound()
}

func (s *session) join(participant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if _, ok := s.participants[participant]; ok {
		return
	}
	s.participants[participant] = Participant{ID: participant, JoinedAt: time.Now()}
	s.mgr.announce.Announce(s.room, fmt.Sprintf("%s joined the quiz.", participant))
}

func (s *session) leave(participant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if _, ok := s.participants[participant]; !ok {
		return
	}
	delete(s.participants, participant)
	delete(s.skipVotes, participant)
	s.mgr.announce.Announce(s.room, fmt.Sprintf("%s left the quiz.", participant))

	if len(s.participants) == 0 {
		s.endLocked("Everyone left — quiz over.")
		return
	}
	// A departure can push the remaining votes over the threshold
	if s.phase == phasePlaying && len(s.skipVotes) > len(s.participants)/2 {
		s.resolveSkipped()
	}
}

func (s *session) stop(requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrNoSession
	}
	if requester != s.moderator {
		return ErrNotModerator
	}
	s.endLocked("Quiz stopped by the moderator.")
	return nil
}

func (s *session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked("Quiz over.")
}

// endLocked tears the session down exactly once: cancels timers, stops
// the pipeline, leaves the voice channel, announces the leaderboard,
// records stats, and removes the session from the registry. Caller
// holds s.mu.
func (s *session) endLocked(msg string) {
	if s.ended {
		return
	}
	s.ended = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.gapTimer != nil {
		s.gapTimer.Stop()
	}
	s.stopPipeline()
	if s.voice != nil {
		if err := s.voice.Close(); err != nil {
			log.Printf("room %s: leave voice: %v", s.room, err)
		}
	}

	s.mgr.announce.Announce(s.room, msg+"\n"+formatLeaderboard(s.ledger))

	if s.mgr.stats != nil && !s.ledger.Empty() {
		if err := s.mgr.stats.RecordResult(context.Background(), s.room, s.ledger.Rank()); err != nil {
			log.Printf("room %s: record results: %v", s.room, err)
		}
	}

	s.mgr.remove(s.room, s)
}

func (s *session) stopPipeline() {
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	if s.voice != nil {
		s.voice.Stop()
	}
}

func formatLeaderboard(l *Ledger) string {
	if l.Empty() {
		return "Nobody scored this time."
	}
	var b strings.Builder
	b.WriteString("Final scores:")
	for i, sc := range l.Rank() {
		fmt.Fprintf(&b, "\n%d. %s — %d", i+1, sc.Participant, sc.Points)
	}
	return b.String()
}
