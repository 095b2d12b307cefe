// Package realtime relays chat messages and typing signals to connected
// clients. Every connection belongs to the group of the user it
// authenticated as.
package realtime

import (
	"encoding/json"
	"sync"
)

// Server to client event names.
const (
	EventMessageReceived = "messageReceived"
	EventUserTyping      = "userTyping"
	EventError           = "error"
)

// Client to server event names.
const (
	EventJoin        = "join"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Frame is the wire shape of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame encodes data under event.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}

// Peer is one live connection.
type Peer interface {
	ID() string
	UserID() int
	// Send queues frame without blocking. It reports false when the frame
	// was dropped.
	Send(frame Frame) bool
	Close() error
}

// Hub maps user ids to their live connections. Entries are removed on
// disconnect only.
type Hub struct {
	mu     sync.RWMutex
	groups map[int]map[string]Peer
}

func NewHub() *Hub {
	return &Hub{groups: make(map[int]map[string]Peer)}
}

// Join adds p to its user's group. Joining twice is a no-op.
func (h *Hub) Join(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[p.UserID()]
	if !ok {
		group = make(map[string]Peer)
		h.groups[p.UserID()] = group
	}
	group[p.ID()] = p
}

// Leave removes p and drops the group once it is empty.
func (h *Hub) Leave(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[p.UserID()]
	if !ok {
		return
	}
	delete(group, p.ID())
	if len(group) == 0 {
		delete(h.groups, p.UserID())
	}
}

// Emit sends frame to every connection of userID and returns how many
// accepted it.
func (h *Hub) Emit(userID int, frame Frame) int {
	return h.EmitExcept(userID, "", frame)
}

// EmitExcept is Emit skipping the connection with id exceptID.
func (h *Hub) EmitExcept(userID int, exceptID string, frame Frame) int {
	h.mu.RLock()
	peers := make([]Peer, 0, len(h.groups[userID]))
	for id, p := range h.groups[userID] {
		if id != exceptID {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, p := range peers {
		if p.Send(frame) {
			delivered++
		}
	}
	return delivered
}

// GroupSize reports the number of live connections for userID.
func (h *Hub) GroupSize(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// CloseAll closes every connection. Sessions remove themselves as they exit.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var peers []Peer
	for _, group := range h.groups {
		for _, p := range group {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range peers {
		_ = p.Close()
	}
}
