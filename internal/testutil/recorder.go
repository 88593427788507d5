// Package testutil holds fakes shared by package tests.
package testutil

import (
	"sync"
)

// Scope says who a recorded message was addressed to.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeExcept Scope = "except"
	ScopeRoom   Scope = "room"
	ScopeConn   Scope = "conn"
)

// Sent is one recorded outbound message.
type Sent struct {
	Scope   Scope
	Target  string // conn id or room; empty for ScopeAll
	Event   string
	Payload interface{}
}

// Recorder captures broadcasts in order. It satisfies the Broadcaster
// interfaces declared by presence, chat, polls and session.
type Recorder struct {
	mu    sync.Mutex
	sent  []Sent
	rooms map[string]string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{rooms: make(map[string]string)}
}

// JoinRoom remembers the room of connID.
func (r *Recorder) JoinRoom(connID, room string) {
	r.mu.Lock()
	r.rooms[connID] = room
	r.mu.Unlock()
}

// Room returns the room connID last joined.
func (r *Recorder) Room(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[connID]
}

func (r *Recorder) add(s Sent) {
	r.mu.Lock()
	r.sent = append(r.sent, s)
	r.mu.Unlock()
}

// Broadcast records a message to every connection.
func (r *Recorder) Broadcast(event string, payload interface{}) {
	r.add(Sent{Scope: ScopeAll, Event: event, Payload: payload})
}

// BroadcastExcept records a message to every connection but connID.
func (r *Recorder) BroadcastExcept(connID, event string, payload interface{}) {
	r.add(Sent{Scope: ScopeExcept, Target: connID, Event: event, Payload: payload})
}

// BroadcastToRoom records a message to one room.
func (r *Recorder) BroadcastToRoom(room, event string, payload interface{}) {
	r.add(Sent{Scope: ScopeRoom, Target: room, Event: event, Payload: payload})
}

// SendTo records a message to a single connection.
func (r *Recorder) SendTo(connID, event string, payload interface{}) {
	r.add(Sent{Scope: ScopeConn, Target: connID, Event: event, Payload: payload})
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Events returns the recorded event names in order.
func (r *Recorder) Events() []string {
	all := r.All()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.Event
	}
	return out
}

// Filter returns recorded messages with the given event name.
func (r *Recorder) Filter(event string) []Sent {
	var out []Sent
	for _, s := range r.All() {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the most recent message with the given event name.
func (r *Recorder) Last(event string) (Sent, bool) {
	matches := r.Filter(event)
	if len(matches) == 0 {
		return Sent{}, false
	}
	return matches[len(matches)-1], true
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
