package ws

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"
)

// MessageType defines the type of WebSocket text message
type MessageType string

const (
	MsgAnnouncement MessageType = "announcement" // server → room
	MsgChat         MessageType = "chat"         // both directions
)

// Message is the WebSocket text envelope format. Audio travels outside
// it, as binary frames.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ChatPayload is the payload of a chat message
type ChatPayload struct {
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// AnnouncementPayload is the payload of an announcement
type AnnouncementPayload struct {
	Text string `json:"text"`
}

// Connection represents one player's WebSocket connection to a room
type Connection struct {
	RoomID   string
	PlayerID string
	Send     chan []byte // text frames
	Audio    chan []byte // binary frames
}

// outbound is a queued room delivery
type outbound struct {
	roomID string
	data   []byte
	binary bool
}

// Hub manages room WebSocket connections. It is the in-process chat and
// voice platform: text frames in are routed to OnChat, announcements and
// audio frames fan out to every connection in the room, and OnEmpty
// fires when a room's last connection drops.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection // roomID -> playerID -> conn

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *outbound

	// OnChat receives every inbound chat message. Set before serving.
	OnChat func(roomID, playerID, text string)
	// OnEmpty fires after a room's occupant count drops to zero
	OnEmpty func(roomID string)
}

// NewHub creates a hub and starts its delivery loop
func NewHub() *Hub {
	h := &Hub{
		rooms:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.rooms[conn.RoomID] == nil {
				h.rooms[conn.RoomID] = make(map[string]*Connection)
			}
			if existing, ok := h.rooms[conn.RoomID][conn.PlayerID]; ok {
				close(existing.Send)
			}
			h.rooms[conn.RoomID][conn.PlayerID] = conn
			h.mu.Unlock()
			log.Printf("player %s connected to room %s", conn.PlayerID, conn.RoomID)

		case conn := <-h.unregister:
			var empty bool
			h.mu.Lock()
			if conns, ok := h.rooms[conn.RoomID]; ok {
				if existing, ok := conns[conn.PlayerID]; ok && existing == conn {
					delete(conns, conn.PlayerID)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.rooms, conn.RoomID)
						empty = true
					}
				}
			}
			h.mu.Unlock()
			log.Printf("player %s disconnected from room %s", conn.PlayerID, conn.RoomID)
			if empty && h.OnEmpty != nil {
				h.OnEmpty(conn.RoomID)
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, conn := range h.rooms[msg.roomID] {
				ch := conn.Send
				if msg.binary {
					ch = conn.Audio
				}
				select {
				case ch <- msg.data:
				default:
					// drop for slow consumers rather than stall the room
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Occupants returns the number of connections in a room
func (h *Hub) Occupants(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Announce sends a text announcement to every connection in a room
// (implements game.Announcer)
func (h *Hub) Announce(roomID, text string) {
	payload, _ := json.Marshal(&AnnouncementPayload{Text: text})
	data, _ := json.Marshal(&Message{Type: MsgAnnouncement, Payload: payload})
	h.broadcast <- &outbound{roomID: roomID, data: data}
}

// Chat relays a player chat line to the room
func (h *Hub) Chat(roomID, from, text string) {
	payload, _ := json.Marshal(&ChatPayload{From: from, Text: text})
	data, _ := json.Marshal(&Message{Type: MsgChat, Payload: payload})
	h.broadcast <- &outbound{roomID: roomID, data: data}
}

// audio frame shaping: 48kHz stereo s16le, 20ms per frame
const (
	audioFrameBytes    = 48000 * 2 * 2 * 20 / 1000
	audioFrameInterval = 20 * time.Millisecond
)

// AudioChannel is one room's playback pump (implements game.VoiceConn).
// Play reads pull-style from its source and fans frames out to the room
// as paced binary WebSocket messages.
type AudioChannel struct {
	hub    *Hub
	roomID string

	mu   sync.Mutex
	stop chan struct{}
}

// JoinVoice attaches a playback channel to a room's audio target
// (game.Voice is implemented by the Voice adapter over this)
func (h *Hub) JoinVoice(roomID string) *AudioChannel {
	return &AudioChannel{hub: h, roomID: roomID}
}

// Play pumps src to the room until EOF or Stop; it returns immediately
func (a *AudioChannel) Play(src io.Reader) {
	a.mu.Lock()
	if a.stop != nil {
		close(a.stop)
	}
	stop := make(chan struct{})
	a.stop = stop
	a.mu.Unlock()

	go a.pump(src, stop)
}

func (a *AudioChannel) pump(src io.Reader, stop chan struct{}) {
	ticker := time.NewTicker(audioFrameInterval)
	defer ticker.Stop()

	buf := make([]byte, audioFrameBytes)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		n, err := io.ReadFull(src, buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			a.hub.broadcast <- &outbound{roomID: a.roomID, data: frame, binary: true}
		}
		if err != nil {
			return
		}
	}
}

// Stop halts the in-flight pump, if any
func (a *AudioChannel) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
}

// Close stops playback and detaches from the room
func (a *AudioChannel) Close() error {
	a.Stop()
	return nil
}
