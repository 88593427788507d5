// Package chat keeps the in-memory chat history shared by all participants.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/events"
	"github.com/classpulse/livepoll/internal/models"
)

const clearedMessage = "Chat history has been cleared by the teacher"

// ErrEmptyMessage is returned for messages with no text.
var ErrEmptyMessage = errors.New("chat message text is required")

// Broadcaster delivers chat events to every connection.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Draft is an inbound message before it gets an id.
type Draft struct {
	User   string
	UserID string
	Text   string
	SentAt time.Time // zero means now
}

// Log is an append-only message history. Clear is the only way to shrink it,
// apart from the optional cap that drops the oldest entries.
type Log struct {
	mu          sync.RWMutex
	messages    []models.ChatMessage
	maxMessages int
	out         Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// NewLog creates an empty chat log. maxMessages <= 0 disables the cap.
func NewLog(out Broadcaster, maxMessages int, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{out: out, maxMessages: maxMessages, logger: logger, now: time.Now}
}

// Append stores a message from connID and broadcasts it.
func (l *Log) Append(connID string, d Draft) (models.ChatMessage, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	now := l.now()
	createdAt := d.SentAt
	if createdAt.IsZero() {
		createdAt = now
	}
	userID := d.UserID
	if userID == "" {
		userID = connID
	}
	msg := models.ChatMessage{
		ID:        fmt.Sprintf("msg_%d_%s", now.UnixMilli(), connID),
		User:      d.User,
		UserID:    userID,
		Text:      text,
		CreatedAt: createdAt,
	}

	l.mu.Lock()
	l.messages = append(l.messages, msg)
	if l.maxMessages > 0 && len(l.messages) > l.maxMessages {
		l.messages = append([]models.ChatMessage(nil), l.messages[len(l.messages)-l.maxMessages:]...)
	}
	l.mu.Unlock()

	l.out.Broadcast(events.NewChatMessage, msg)
	return msg, nil
}

// Clear empties the log and tells everyone who cleared it.
func (l *Log) Clear(requestedBy string) {
	l.mu.Lock()
	dropped := len(l.messages)
	l.messages = nil
	l.mu.Unlock()

	l.logger.Info("chat history cleared", zap.String("requested_by", requestedBy), zap.Int("dropped", dropped))
	l.out.Broadcast(events.ChatCleared, events.ChatClearedNotice{
		Message:   clearedMessage,
		ClearedBy: requestedBy,
		Timestamp: l.now(),
	})
}

// Snapshot returns a copy of the history, oldest first.
func (l *Log) Snapshot() []models.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}
