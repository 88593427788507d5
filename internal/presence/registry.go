// Package presence tracks registered participants for the roster and kicks.
package presence

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/events"
	"github.com/classpulse/livepoll/internal/models"
)

const kickedMessage = "You have been removed from the session by the teacher"

var (
	// ErrParticipantNotFound is returned when no participant has the connection id.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrInvalidName is returned when a participant registers with a blank name.
	ErrInvalidName = errors.New("participant name is required")
)

// Broadcaster delivers roster updates and kick notices.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
	BroadcastExcept(connID, event string, payload interface{})
	SendTo(connID, event string, payload interface{})
}

// Registry holds the ordered roster keyed by connection id.
type Registry struct {
	mu           sync.RWMutex
	participants []models.Participant
	out          Broadcaster
	logger       *zap.Logger
	now          func() time.Time
}

// NewRegistry creates an empty roster.
func NewRegistry(out Broadcaster, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{out: out, logger: logger, now: time.Now}
}

// Register adds the connection to the roster and broadcasts the full roster.
// Registering an already known connection renames it in place.
func (r *Registry) Register(connID, name string, role models.Role) (models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Participant{}, ErrInvalidName
	}
	if !role.Valid() {
		role = models.RoleStudent
	}

	r.mu.Lock()
	p := models.Participant{ID: connID, Name: name, Role: role, JoinedAt: r.now()}
	if i := r.indexOf(connID); i >= 0 {
		p.JoinedAt = r.participants[i].JoinedAt
		r.participants[i] = p
	} else {
		r.participants = append(r.participants, p)
	}
	roster := r.snapshot()
	r.mu.Unlock()

	r.logger.Info("participant registered", zap.String("conn_id", connID), zap.String("name", name), zap.Int("roster_size", len(roster)))
	r.out.Broadcast(events.ParticipantsList, roster)
	return p, nil
}

// Remove drops the connection from the roster. The roster is broadcast only
// when the connection was registered.
func (r *Registry) Remove(connID string) (models.Participant, bool) {
	r.mu.Lock()
	p, ok := r.removeLocked(connID)
	roster := r.snapshot()
	r.mu.Unlock()
	if !ok {
		return models.Participant{}, false
	}

	r.logger.Info("participant removed", zap.String("conn_id", connID), zap.Int("roster_size", len(roster)))
	r.out.Broadcast(events.ParticipantsList, roster)
	return p, true
}

// Kick removes targetID, notifies that connection only, then sends the
// updated roster to everyone else.
func (r *Registry) Kick(targetID, kickedBy string) (models.Participant, error) {
	r.mu.Lock()
	p, ok := r.removeLocked(targetID)
	roster := r.snapshot()
	r.mu.Unlock()
	if !ok {
		return models.Participant{}, ErrParticipantNotFound
	}

	r.logger.Info("participant kicked", zap.String("conn_id", targetID), zap.String("kicked_by", kickedBy))
	r.out.SendTo(targetID, events.Kicked, events.KickedNotice{Message: kickedMessage, KickedBy: kickedBy})
	r.out.BroadcastExcept(targetID, events.ParticipantsList, roster)
	return p, nil
}

// List returns a copy of the roster in registration order.
func (r *Registry) List() []models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *Registry) removeLocked(connID string) (models.Participant, bool) {
	i := r.indexOf(connID)
	if i < 0 {
		return models.Participant{}, false
	}
	p := r.participants[i]
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return p, true
}

func (r *Registry) indexOf(connID string) int {
	for i, p := range r.participants {
		if p.ID == connID {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshot() []models.Participant {
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}
