// Package session routes client events to the poll coordinator, the roster
// and the chat log from a single event loop, so no two mutations interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/chat"
	"github.com/classpulse/livepoll/internal/events"
	"github.com/classpulse/livepoll/internal/models"
	"github.com/classpulse/livepoll/internal/polls"
	"github.com/classpulse/livepoll/internal/presence"
	"github.com/classpulse/livepoll/internal/realtime"
)

var (
	// ErrInvalidPayload is returned when an event's data cannot be decoded.
	ErrInvalidPayload = errors.New("invalid event payload")
	// ErrUnknownEvent is returned for event names the session does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)

const inboxSize = 256

// Transport fans out session output to connections.
type Transport interface {
	Broadcast(event string, payload interface{})
	BroadcastExcept(connID, event string, payload interface{})
	BroadcastToRoom(room, event string, payload interface{})
	SendTo(connID, event string, payload interface{})
	JoinRoom(connID, room string)
}

// Config tunes a session.
type Config struct {
	TickInterval    time.Duration // countdown cadence, one second in production
	Retention       time.Duration // how long an expired poll stays visible
	ChatMaxMessages int
}

type eventKind int

const (
	kindMessage eventKind = iota
	kindDisconnect
	kindTick
)

type event struct {
	kind   eventKind
	connID string
	msg    realtime.WSMessage
	tick   polls.Tick
}

// Session owns all live classroom state. Run must be called exactly once;
// everything else may be called from any goroutine.
type Session struct {
	out    Transport
	coord  *polls.Coordinator
	roster *presence.Registry
	chat   *chat.Log
	logger *zap.Logger

	inbox chan event
	done  chan struct{}

	// loop-only
	roles map[string]models.Role
}

// New creates a session whose poll countdown ticks every cfg.TickInterval.
func New(out Transport, persister polls.Persister, cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := newSession(out, cfg, logger)
	timer := polls.NewTimer(cfg.TickInterval, s.enqueueTick, logger.Named("timer"))
	s.coord = polls.NewCoordinator(out, timer, persister, cfg.Retention, logger.Named("polls"))
	return s
}

func newSession(out Transport, cfg Config, logger *zap.Logger) *Session {
	return &Session{
		out:    out,
		roster: presence.NewRegistry(out, logger.Named("presence")),
		chat:   chat.NewLog(out, cfg.ChatMaxMessages, logger.Named("chat")),
		logger: logger,
		inbox:  make(chan event, inboxSize),
		done:   make(chan struct{}),
		roles:  make(map[string]models.Role),
	}
}

// HandleMessage queues an inbound client event.
func (s *Session) HandleMessage(connID string, msg realtime.WSMessage) {
	s.enqueue(event{kind: kindMessage, connID: connID, msg: msg})
}

// HandleDisconnect queues the removal of a closed connection.
func (s *Session) HandleDisconnect(connID string) {
	s.enqueue(event{kind: kindDisconnect, connID: connID})
}

func (s *Session) enqueueTick(t polls.Tick) {
	s.enqueue(event{kind: kindTick, tick: t})
}

func (s *Session) enqueue(ev event) {
	select {
	case s.inbox <- ev:
	case <-s.done:
	}
}

// Run processes events until ctx is cancelled, then stops the poll countdown.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		s.coord.Close()
		close(s.done)
		s.logger.Info("session stopped")
	}()
	s.logger.Info("session started")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.inbox:
			s.dispatch(ev)
		}
	}
}

func (s *Session) dispatch(ev event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session handler panicked",
				zap.Any("panic", r),
				zap.String("conn_id", ev.connID),
				zap.String("event", ev.msg.Event),
				zap.Stack("stack"),
			)
		}
	}()

	switch ev.kind {
	case kindTick:
		s.coord.OnTimerTick(ev.tick)
	case kindDisconnect:
		s.disconnect(ev.connID)
	case kindMessage:
		if err := s.handle(ev.connID, ev.msg); err != nil {
			s.logFailure(ev.connID, ev.msg.Event, err)
		}
	}
}

func (s *Session) logFailure(connID, name string, err error) {
	fields := []zap.Field{zap.String("conn_id", connID), zap.String("event", name), zap.Error(err)}
	switch {
	case errors.Is(err, polls.ErrPollNotFound),
		errors.Is(err, polls.ErrOptionNotFound),
		errors.Is(err, polls.ErrPollNotActive),
		errors.Is(err, presence.ErrParticipantNotFound):
		s.logger.Info("event ignored", fields...)
	default:
		s.logger.Warn("event rejected", fields...)
	}
}

func (s *Session) handle(connID string, msg realtime.WSMessage) error {
	switch msg.Event {
	case events.JoinRoom:
		return s.joinRoom(connID, msg)
	case events.RegisterStudent:
		return s.register(connID, msg)
	case events.GetParticipants:
		s.out.SendTo(connID, events.ParticipantsList, s.roster.List())
		return nil
	case events.KickParticipant:
		return s.kick(connID, msg)
	case events.CreatePoll:
		return s.createPoll(msg)
	case events.SubmitVote:
		return s.submitVote(connID, msg)
	case events.EndPoll:
		return s.coord.StopPoll()
	case events.SendChatMessage:
		return s.sendChat(connID, msg)
	case events.GetChatHistory:
		s.out.SendTo(connID, events.ChatHistory, s.chat.Snapshot())
		return nil
	case events.ClearChatHistory:
		return s.clearChat(connID, msg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Event)
	}
}

func (s *Session) joinRoom(connID string, msg realtime.WSMessage) error {
	var p joinRoomPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(p.Role)))
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidPayload, p.Role)
	}
	s.roles[connID] = role
	s.out.JoinRoom(connID, string(role))
	s.logger.Debug("joined room", zap.String("conn_id", connID), zap.String("role", string(role)))

	js := s.coord.CurrentForJoin()
	switch js.State {
	case polls.StateActive:
		s.out.SendTo(connID, events.NewQuestion, js.Poll)
	case polls.StateExpired:
		s.out.SendTo(connID, events.VoteUpdate, js.Poll)
	}
	s.out.SendTo(connID, events.TimerUpdate, js.Timer)
	// Anything but a running poll reads as ended, idle included.
	if js.State != polls.StateActive {
		s.out.SendTo(connID, events.PollEnded, events.PollEndedNotice{})
	}

	// Teachers see the roster as soon as one of them joins.
	if role == models.RoleTeacher {
		s.out.BroadcastToRoom(string(models.RoleTeacher), events.ParticipantsList, s.roster.List())
	}
	return nil
}

func (s *Session) register(connID string, msg realtime.WSMessage) error {
	var p registerPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	role, ok := s.roles[connID]
	if !ok {
		role = models.RoleStudent
	}
	_, err := s.roster.Register(connID, p.Name, role)
	return err
}

func (s *Session) kick(connID string, msg realtime.WSMessage) error {
	var p kickPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	kickedBy := p.KickedBy
	if kickedBy == "" {
		kickedBy = s.displayName(connID)
	}
	_, err := s.roster.Kick(p.ParticipantID, kickedBy)
	return err
}

func (s *Session) createPoll(msg realtime.WSMessage) error {
	var p createPollPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	in, err := p.toInput()
	if err != nil {
		return err
	}
	_, err = s.coord.CreatePoll(in)
	return err
}

func (s *Session) submitVote(connID string, msg realtime.WSMessage) error {
	var p votePayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	if p.OptionIndex == nil {
		return fmt.Errorf("%w: optionIndex is required", ErrInvalidPayload)
	}
	_, err := s.coord.SubmitVote(p.QuestionID, *p.OptionIndex)
	if errors.Is(err, polls.ErrPollNotActive) {
		s.out.SendTo(connID, events.VoteRejected, events.VoteRejectedNotice{Reason: polls.RejectedReason})
	}
	return err
}

func (s *Session) sendChat(connID string, msg realtime.WSMessage) error {
	var p chatPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	_, err := s.chat.Append(connID, chat.Draft{
		User:   p.User,
		UserID: p.UserID,
		Text:   p.Text,
		SentAt: parseTimestamp(p.Timestamp),
	})
	return err
}

func (s *Session) clearChat(connID string, msg realtime.WSMessage) error {
	var p clearChatPayload
	if err := decode(msg.Data, &p); err != nil {
		return err
	}
	requestedBy := p.RequestedBy
	if requestedBy == "" {
		requestedBy = s.displayName(connID)
	}
	s.chat.Clear(requestedBy)
	return nil
}

func (s *Session) disconnect(connID string) {
	delete(s.roles, connID)
	s.roster.Remove(connID)
}

// displayName is the registered name of connID, or its role when it never registered.
func (s *Session) displayName(connID string) string {
	for _, p := range s.roster.List() {
		if p.ID == connID {
			return p.Name
		}
	}
	if role, ok := s.roles[connID]; ok {
		return string(role)
	}
	return "unknown"
}
