package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"clipquiz/internal/model"
)

// Manager owns the session registry: at most one live session per room,
// created by Start and removed when the session ends through any path.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	catalog   Catalog
	extractor Extractor
	voice     Voice
	announce  Announcer
	stats     Stats
	opts      Options
}

// NewManager creates the session registry with its collaborators
func NewManager(catalog Catalog, extractor Extractor, voice Voice, announce Announcer, stats Stats, opts Options) *Manager {
	return &Manager{
		sessions:  make(map[string]*session),
		catalog:   catalog,
		extractor: extractor,
		voice:     voice,
		announce:  announce,
		stats:     stats,
		opts:      opts,
	}
}

// Start begins a quiz in a room against a catalog pack. The moderator is
// registered as the first participant. Fails without mutating anything
// if a session is already live, the pack is missing or empty, or the
// voice target can't be joined.
func (m *Manager) Start(ctx context.Context, room, packID, moderator, voiceTarget string) error {
	if voiceTarget == "" {
		return ErrNoVoiceTarget
	}
	if m.get(room) != nil {
		return ErrSessionActive
	}

	pack, err := m.catalog.GetPack(ctx, packID)
	if err != nil {
		return fmt.Errorf("load pack: %w", err)
	}
	if pack == nil {
		return ErrPackNotFound
	}
	if len(pack.Tracks) == 0 {
		return ErrEmptyPack
	}

	tracks := make([]model.Track, len(pack.Tracks))
	copy(tracks, pack.Tracks)
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})

	s := &session{
		mgr:         m,
		room:        room,
		moderator:   moderator,
		packName:    pack.Name,
		voiceTarget: voiceTarget,
		tracks:      tracks,
		participants: map[string]Participant{
			moderator: {ID: moderator, JoinedAt: time.Now()},
		},
		skipVotes: make(map[string]struct{}),
		ledger:    NewLedger(),
	}

	m.mu.Lock()
	if _, exists := m.sessions[room]; exists {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.sessions[room] = s
	m.mu.Unlock()

	conn, err := m.voice.Join(ctx, room, voiceTarget)
	if err != nil {
		m.remove(room, s)
		return fmt.Errorf("join voice target: %w", err)
	}

	// Play-count bookkeeping is best effort; the quiz runs regardless
	if err := m.catalog.IncrementPlayCount(ctx, packID); err != nil {
		log.Printf("pack %s: increment play count: %v", packID, err)
	}

	s.mu.Lock()
	s.voice = conn
	m.announce.Announce(room, fmt.Sprintf(
		"Quiz time! %d tracks from %q. Type your guess in chat; %q votes to skip.",
		len(tracks), pack.Name, "skip"))
	s.startRound()
	s.mu.Unlock()
	return nil
}

// Stop ends a session early; only the moderator may do this
func (m *Manager) Stop(room, requester string) error {
	s := m.get(room)
	if s == nil {
		return ErrNoSession
	}
	return s.stop(requester)
}

// Join registers a participant in the room's session
func (m *Manager) Join(room, participant string) error {
	s := m.get(room)
	if s == nil {
		return ErrNoSession
	}
	s.join(participant)
	return nil
}

// Leave removes a participant; accumulated score is kept
func (m *Manager) Leave(room, participant string) error {
	s := m.get(room)
	if s == nil {
		return ErrNoSession
	}
	s.leave(participant)
	return nil
}

// HandleMessage routes one room chat message into the session, if any.
// Messages from rooms without a session or from non-participants are
// dropped silently.
func (m *Manager) HandleMessage(room, participant, text string) {
	s := m.get(room)
	if s == nil {
		return
	}
	s.handleMessage(participant, text)
}

// End tears a room's session down; idempotent, safe for external cleanup
// such as the room's presence dropping to nobody.
func (m *Manager) End(room string) {
	s := m.get(room)
	if s == nil {
		return
	}
	s.end()
}

// Active reports whether a room has a live session
func (m *Manager) Active(room string) bool {
	return m.get(room) != nil
}

// Status is a point-in-time view of a room's session
type Status struct {
	Room         string  `json:"room"`
	Pack         string  `json:"pack"`
	Moderator    string  `json:"moderator"`
	Round        int     `json:"round"`
	Rounds       int     `json:"rounds"`
	Participants int     `json:"participants"`
	Leaderboard  []Score `json:"leaderboard"`
}

// Snapshot returns the room's current status and leaderboard
func (m *Manager) Snapshot(room string) (*Status, bool) {
	s := m.get(room)
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, false
	}
	return &Status{
		Room:         s.room,
		Pack:         s.packName,
		Moderator:    s.moderator,
		Round:        min(s.idx+1, len(s.tracks)),
		Rounds:       len(s.tracks),
		Participants: len(s.participants),
		Leaderboard:  s.ledger.Rank(),
	}, true
}

func (m *Manager) get(room string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[room]
}

// remove drops a session from the registry if it is still the one
// registered for the room
func (m *Manager) remove(room string, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[room] == s {
		delete(m.sessions, room)
	}
}
