package ws

import (
	"context"

	"clipquiz/internal/game"
)

// Voice adapts the hub to the quiz engine's voice interface: every room
// has one audio target, its own binary frame channel
type Voice struct {
	hub *Hub
}

// NewVoice creates the voice adapter
func NewVoice(hub *Hub) *Voice {
	return &Voice{hub: hub}
}

// Join attaches a playback channel to the room (implements game.Voice)
func (v *Voice) Join(ctx context.Context, room, target string) (game.VoiceConn, error) {
	return v.hub.JoinVoice(room), nil
}
