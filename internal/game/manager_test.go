package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"clipquiz/internal/model"
)

// --- fakes ---

type fakeAnnouncer struct {
	mu   sync.Mutex
	msgs []string
}

func (a *fakeAnnouncer) Announce(room, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, text)
}

func (a *fakeAnnouncer) count(substr string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, m := range a.msgs {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

func (a *fakeAnnouncer) has(substr string) bool {
	return a.count(substr) > 0
}

type fakeCatalog struct {
	mu    sync.Mutex
	packs map[string]*model.Pack
	plays map[string]int
}

func (c *fakeCatalog) GetPack(ctx context.Context, id string) (*model.Pack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.packs[id], nil
}

func (c *fakeCatalog) IncrementPlayCount(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays[id]++
	return nil
}

type fakeExtractor struct {
	mu   sync.Mutex
	fail map[string]bool
}

func (e *fakeExtractor) Open(ctx context.Context, locator string, offset, limit time.Duration, sink io.WriteCloser) error {
	e.mu.Lock()
	failing := e.fail[locator]
	e.mu.Unlock()
	if failing {
		return errors.New("unresolvable locator")
	}
	go func() {
		sink.Write([]byte("pcm"))
		<-ctx.Done()
		sink.Close()
	}()
	return nil
}

type fakeVoiceConn struct {
	mu     sync.Mutex
	plays  int
	stops  int
	closed bool
}

func (c *fakeVoiceConn) Play(src io.Reader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
}

func (c *fakeVoiceConn) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
}

func (c *fakeVoiceConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeVoice struct {
	mu      sync.Mutex
	joinErr error
	conns   []*fakeVoiceConn
}

func (v *fakeVoice) Join(ctx context.Context, room, target string) (VoiceConn, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.joinErr != nil {
		return nil, v.joinErr
	}
	conn := &fakeVoiceConn{}
	v.conns = append(v.conns, conn)
	return conn, nil
}

type fakeStats struct {
	mu      sync.Mutex
	results map[string][]Score
}

func (s *fakeStats) RecordResult(ctx context.Context, room string, ranking []Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[room] = ranking
	return nil
}

// --- harness ---

type fixture struct {
	m     *Manager
	ann   *fakeAnnouncer
	cat   *fakeCatalog
	ext   *fakeExtractor
	voice *fakeVoice
	stats *fakeStats
}

func newFixture(opts Options, packs ...*model.Pack) *fixture {
	f := &fixture{
		ann:   &fakeAnnouncer{},
		cat:   &fakeCatalog{packs: make(map[string]*model.Pack), plays: make(map[string]int)},
		ext:   &fakeExtractor{fail: make(map[string]bool)},
		voice: &fakeVoice{},
		stats: &fakeStats{results: make(map[string][]Score)},
	}
	for _, p := range packs {
		f.cat.packs[p.ID] = p
	}
	f.m = NewManager(f.cat, f.ext, f.voice, f.ann, f.stats, opts)
	return f
}

func demoPack(id string, n int) *model.Pack {
	p := &model.Pack{ID: id, Name: "demo"}
	for i := 1; i <= n; i++ {
		p.Tracks = append(p.Tracks, model.Track{
			Artist:    "Artist",
			Title:     fmt.Sprintf("Track %d", i),
			Locator:   fmt.Sprintf("loc-%d", i),
			LengthSec: model.TrackLengthFull,
		})
	}
	return p
}

// currentTrack peeks at the playing round's track
func (f *fixture) currentTrack(room string) model.Track {
	s := f.m.get(room)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks[s.idx]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var slow = Options{MaxTrackDuration: time.Hour, RoundGap: time.Hour}

// --- tests ---

func TestStartValidation(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 2), &model.Pack{ID: "empty", Name: "empty"})

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", ""); !errors.Is(err, ErrNoVoiceTarget) {
		t.Errorf("empty voice target: %v, want ErrNoVoiceTarget", err)
	}
	if err := f.m.Start(context.Background(), "room", "missing", "P1", "room"); !errors.Is(err, ErrPackNotFound) {
		t.Errorf("unknown pack: %v, want ErrPackNotFound", err)
	}
	if err := f.m.Start(context.Background(), "room", "empty", "P1", "room"); !errors.Is(err, ErrEmptyPack) {
		t.Errorf("empty pack: %v, want ErrEmptyPack", err)
	}

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.m.Start(context.Background(), "room", "pack1", "P2", "room"); !errors.Is(err, ErrSessionActive) {
		t.Errorf("duplicate start: %v, want ErrSessionActive", err)
	}
	if f.cat.plays["pack1"] != 1 {
		t.Errorf("play count = %d, want 1", f.cat.plays["pack1"])
	}
}

func TestStartVoiceJoinFailure(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 1))
	f.voice.joinErr = errors.New("voice busy")

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err == nil {
		t.Fatal("expected error when voice join fails")
	}
	if f.m.Active("room") {
		t.Error("failed start must not leave a session behind")
	}
}

func TestCorrectAnswerThenTimeout(t *testing.T) {
	f := newFixture(Options{MaxTrackDuration: 300 * time.Millisecond, RoundGap: 20 * time.Millisecond},
		demoPack("pack1", 2))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.m.Join("room", "P2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

	f.m.HandleMessage("room", "P1", f.currentTrack("room").Title)
	waitFor(t, "correct answer", func() bool { return f.ann.has("P1 got it!") })

	// second round runs out the clock, then the session ends
	waitFor(t, "timeout", func() bool { return f.ann.has("Time's up!") })
	waitFor(t, "session end", func() bool { return !f.m.Active("room") })

	if !f.ann.has("Final scores:") || !f.ann.has("1. P1 — 1") {
		t.Error("final leaderboard missing P1 with one point")
	}

	f.stats.mu.Lock()
	defer f.stats.mu.Unlock()
	ranking := f.stats.results["room"]
	if len(ranking) != 1 || ranking[0] != (Score{Participant: "P1", Points: 1}) {
		t.Errorf("recorded ranking = %+v", ranking)
	}
}

func TestSkipConsensus(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 2))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, p := range []string{"P2", "P3", "P4"} {
		if err := f.m.Join("room", p); err != nil {
			t.Fatalf("join %s: %v", p, err)
		}
	}
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

	// 2 of 4 votes must not skip
	f.m.HandleMessage("room", "P1", "skip")
	f.m.HandleMessage("room", "P2", "!skip")
	if f.ann.has("Skipped by vote") {
		t.Fatal("2 of 4 votes should not reach consensus")
	}

	// the third vote must
	f.m.HandleMessage("room", "P3", "skip")
	waitFor(t, "skip", func() bool { return f.ann.has("Skipped by vote") })

	status, ok := f.m.Snapshot("room")
	if !ok || status.Round != 2 {
		t.Errorf("round after skip = %+v, want round 2", status)
	}
}

func TestDuplicateSkipVoteIgnored(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 1))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, p := range []string{"P2", "P3", "P4"} {
		f.m.Join("room", p)
	}
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 1") })

	f.m.HandleMessage("room", "P1", "skip")
	f.m.HandleMessage("room", "P1", "skip")
	f.m.HandleMessage("room", "P1", "skip")
	if f.ann.has("Skipped by vote") {
		t.Error("one voter must not skip alone, however often they vote")
	}
}

// Exactly one of a racing timer expiry and a matching answer resolves
// the round.
func TestAnswerTimeoutRace(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(slow, demoPack("pack1", 2))
		if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
			t.Fatalf("start: %v", err)
		}
		waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

		s := f.m.get("room")
		s.mu.Lock()
		gen := s.gen
		title := s.tracks[s.idx].Title
		s.mu.Unlock()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.onTimeout(gen)
		}()
		go func() {
			defer wg.Done()
			f.m.HandleMessage("room", "P1", title)
		}()
		wg.Wait()

		resolutions := f.ann.count("Time's up!") + f.ann.count("got it!")
		if resolutions != 1 {
			t.Fatalf("iteration %d: %d resolutions, want exactly 1", i, resolutions)
		}
	}
}

func TestMediaFailureAutoSkips(t *testing.T) {
	f := newFixture(Options{MaxTrackDuration: 50 * time.Millisecond, RoundGap: 10 * time.Millisecond},
		demoPack("pack1", 3))
	f.ext.fail["loc-2"] = true

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitFor(t, "session end", func() bool { return !f.m.Active("room") })
	if got := f.ann.count("can't be played"); got != 1 {
		t.Errorf("error-skip announcements = %d, want 1", got)
	}
	if !f.ann.has("Nobody scored this time.") {
		t.Error("session should end with the empty leaderboard")
	}
}

func TestStopAuthorization(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 2))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.m.Join("room", "P2")
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

	if err := f.m.Stop("room", "P2"); !errors.Is(err, ErrNotModerator) {
		t.Errorf("non-moderator stop: %v, want ErrNotModerator", err)
	}
	if !f.m.Active("room") {
		t.Fatal("session must survive an unauthorized stop")
	}

	if err := f.m.Stop("room", "P1"); err != nil {
		t.Fatalf("moderator stop: %v", err)
	}
	if f.m.Active("room") {
		t.Error("session must end on moderator stop")
	}

	// the cancelled round timer must not start another round
	rounds := f.ann.count("Round ")
	time.Sleep(50 * time.Millisecond)
	if got := f.ann.count("Round "); got != rounds {
		t.Errorf("rounds kept announcing after stop: %d -> %d", rounds, got)
	}
	if err := f.m.Stop("room", "P1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("stop after end: %v, want ErrNoSession", err)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	pack := demoPack("pack1", 20)
	f := newFixture(slow, pack)

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}

	s := f.m.get("room")
	s.mu.Lock()
	shuffled := make([]model.Track, len(s.tracks))
	copy(shuffled, s.tracks)
	s.mu.Unlock()

	if len(shuffled) != len(pack.Tracks) {
		t.Fatalf("session has %d tracks, pack has %d", len(shuffled), len(pack.Tracks))
	}
	seen := make(map[string]int)
	for _, tr := range shuffled {
		seen[tr.Title]++
	}
	for _, tr := range pack.Tracks {
		if seen[tr.Title] != 1 {
			t.Errorf("track %q appears %d times in the session", tr.Title, seen[tr.Title])
		}
	}
	// the catalog copy is untouched
	for i, tr := range pack.Tracks {
		if tr.Title != fmt.Sprintf("Track %d", i+1) {
			t.Fatalf("pack order mutated at %d: %q", i, tr.Title)
		}
	}
}

func TestNonParticipantIgnored(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 1))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 1") })

	f.m.HandleMessage("room", "ghost", f.currentTrack("room").Title)
	if f.ann.has("got it!") {
		t.Error("non-participant answer must be ignored")
	}
	if !f.m.Active("room") {
		t.Error("session must still be running")
	}
}

func TestLeaveKeepsScoreAndRechecksVotes(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 3))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, p := range []string{"P2", "P3", "P4"} {
		f.m.Join("room", p)
	}
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 3") })

	// 2 of 4 votes: short of consensus
	f.m.HandleMessage("room", "P1", "skip")
	f.m.HandleMessage("room", "P2", "skip")
	if f.ann.has("Skipped by vote") {
		t.Fatal("premature skip")
	}

	// a non-voter leaving makes it 2 of 3
	if err := f.m.Leave("room", "P4"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	waitFor(t, "skip after leave", func() bool { return f.ann.has("Skipped by vote") })
}

func TestGapFastForwardAfterCorrectAnswer(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 2))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.m.Join("room", "P2")
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

	f.m.HandleMessage("room", "P1", f.currentTrack("room").Title)
	waitFor(t, "correct answer", func() bool { return f.ann.has("got it!") })

	// with an hour-long gap, only a skip majority moves the quiz along
	f.m.HandleMessage("room", "P1", "skip")
	f.m.HandleMessage("room", "P2", "skip")
	waitFor(t, "round 2", func() bool { return f.ann.has("Round 2 of 2") })
}

func TestEndIsIdempotent(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 1))

	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.m.End("room")
	f.m.End("room")

	if f.m.Active("room") {
		t.Error("session must be gone after End")
	}
	if got := f.ann.count("Quiz over."); got != 1 {
		t.Errorf("end announcements = %d, want 1", got)
	}

	f.voice.mu.Lock()
	defer f.voice.mu.Unlock()
	if len(f.voice.conns) != 1 || !f.voice.conns[0].closed {
		t.Error("voice channel must be released exactly once")
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(slow, demoPack("pack1", 2))

	if _, ok := f.m.Snapshot("room"); ok {
		t.Fatal("no snapshot without a session")
	}
	if err := f.m.Start(context.Background(), "room", "pack1", "P1", "room"); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.m.Join("room", "P2")
	waitFor(t, "round 1", func() bool { return f.ann.has("Round 1 of 2") })

	f.m.HandleMessage("room", "P2", f.currentTrack("room").Title)
	waitFor(t, "correct answer", func() bool { return f.ann.has("got it!") })

	status, ok := f.m.Snapshot("room")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if status.Rounds != 2 || status.Participants != 2 || status.Moderator != "P1" {
		t.Errorf("snapshot = %+v", status)
	}
	if len(status.Leaderboard) != 1 || status.Leaderboard[0] != (Score{Participant: "P2", Points: 1}) {
		t.Errorf("leaderboard = %+v", status.Leaderboard)
	}
}
