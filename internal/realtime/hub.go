package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	sendBuffer = 256
)

// Dispatcher receives everything a connection sends, and its disconnect.
type Dispatcher interface {
	HandleMessage(connID string, msg WSMessage)
	HandleDisconnect(connID string)
}

// Hub maintains the connected clients and the role room each one joined.
// All sends are non-blocking: a client whose buffer is full misses the message.
type Hub struct {
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
	mu      sync.RWMutex
	closed  bool
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a client. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("conn_id", c.ID), zap.Int("clients", count))
	return true
}

// Unregister removes a client and closes its send channel. It reports whether the client was present.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		h.detach(c)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Debug("client disconnected", zap.String("conn_id", c.ID), zap.Int("clients", count))
	}
	return ok
}

// detach must be called with mu held.
func (h *Hub) detach(c *Client) {
	delete(h.clients, c.ID)
	if c.room != "" {
		if m, ok := h.rooms[c.room]; ok {
			delete(m, c.ID)
			if len(m) == 0 {
				delete(h.rooms, c.room)
			}
		}
	}
	close(c.send)
}

// JoinRoom moves connID into room, leaving any room it was in before.
func (h *Hub) JoinRoom(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if c.room != "" && c.room != room {
		if m, ok := h.rooms[c.room]; ok {
			delete(m, connID)
			if len(m) == 0 {
				delete(h.rooms, c.room)
			}
		}
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
	c.room = room
}

// Broadcast sends a message to every client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.deliver(c, msg)
	}
}

// BroadcastExcept sends a message to every client but connID.
func (h *Hub) BroadcastExcept(connID, event string, payload interface{}) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id != connID {
			h.deliver(c, msg)
		}
	}
}

// BroadcastToRoom sends a message to the clients that joined room.
func (h *Hub) BroadcastToRoom(room, event string, payload interface{}) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.rooms[room] {
		if c, ok := h.clients[id]; ok {
			h.deliver(c, msg)
		}
	}
}

// SendTo sends a message to a single client.
func (h *Hub) SendTo(connID, event string, payload interface{}) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.deliver(c, msg)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of clients in room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	n := len(h.clients)
	for _, c := range h.clients {
		h.detach(c)
	}
	h.logger.Info("hub closed", zap.Int("clients", n))
}

func (h *Hub) encode(event string, payload interface{}) (WSMessage, bool) {
	var data []byte
	switch v := payload.(type) {
	case nil:
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error("encode outbound message", zap.String("event", event), zap.Error(err))
			return WSMessage{}, false
		}
	}
	return WSMessage{Event: event, Data: data}, true
}

// deliver must be called with mu held so the channel cannot be closed underneath it.
func (h *Hub) deliver(c *Client, msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("client send buffer full, dropping message", zap.String("conn_id", c.ID), zap.String("event", msg.Event))
	}
}
