package game

import (
	"context"
	"errors"
	"io"
	"time"

	"clipquiz/internal/model"
)

var (
	ErrSessionActive  = errors.New("a quiz is already running in this room")
	ErrNoSession      = errors.New("no quiz is running in this room")
	ErrPackNotFound   = errors.New("pack not found")
	ErrEmptyPack      = errors.New("pack has no tracks")
	ErrNoVoiceTarget  = errors.New("no voice target to play into")
	ErrNotModerator   = errors.New("only the quiz moderator can do that")
	ErrNotParticipant = errors.New("join the quiz first")
)

// Announcer delivers text announcements to a room (implemented by the
// WebSocket hub; avoids a game→transport import cycle)
type Announcer interface {
	Announce(room, text string)
}

// Extractor resolves a media locator and pushes a raw audio window into
// sink from the background, closing sink when the window ends. Resolution
// failures must be returned synchronously, before any byte is written.
type Extractor interface {
	Open(ctx context.Context, locator string, offset, limit time.Duration, sink io.WriteCloser) error
}

// Voice joins a room's audio channel
type Voice interface {
	Join(ctx context.Context, room, target string) (VoiceConn, error)
}

// VoiceConn is one room's playback channel. Play pumps src until EOF or
// Stop and returns immediately; a session owns at most one live pump.
type VoiceConn interface {
	Play(src io.Reader)
	Stop()
	Close() error
}

// Catalog is the slice of the pack store consumed at session start
type Catalog interface {
	GetPack(ctx context.Context, id string) (*model.Pack, error)
	IncrementPlayCount(ctx context.Context, id string) error
}

// Stats records final session results (all-time win counters); may be nil
type Stats interface {
	RecordResult(ctx context.Context, room string, ranking []Score) error
}

// Options are the quiz tunables
type Options struct {
	// MaxTrackDuration caps a round's wall clock; tracks with
	// model.TrackLengthFull play for exactly this long.
	MaxTrackDuration time.Duration
	// RoundGap is the pause between a resolved round and the next one
	RoundGap time.Duration
}
