// Package events names the realtime events exchanged with clients and the
// fixed-shape payloads that are not domain models.
package events

import "time"

// Inbound events.
const (
	JoinRoom         = "joinRoom"
	RegisterStudent  = "registerStudent"
	GetParticipants  = "getParticipants"
	KickParticipant  = "kickParticipant"
	CreatePoll       = "createPoll"
	SubmitVote       = "submitVote"
	EndPoll          = "endPoll"
	SendChatMessage  = "sendChatMessage"
	GetChatHistory   = "getChatHistory"
	ClearChatHistory = "clearChatHistory"
)

// Outbound events.
const (
	ParticipantsList = "participantsList"
	Kicked           = "kicked"
	NewQuestion      = "newQuestion"
	VoteUpdate       = "voteUpdate"
	VoteRejected     = "voteRejected"
	TimerUpdate      = "timerUpdate"
	PollEnded        = "pollEnded"
	NewChatMessage   = "newChatMessage"
	ChatHistory      = "chatHistory"
	ChatCleared      = "chatCleared"
)

// KickedNotice is sent only to the removed connection.
type KickedNotice struct {
	Message  string `json:"message"`
	KickedBy string `json:"kickedBy"`
}

// ChatClearedNotice is broadcast after the chat log is emptied.
type ChatClearedNotice struct {
	Message   string    `json:"message"`
	ClearedBy string    `json:"clearedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// VoteRejectedNotice is sent only to the voter.
type VoteRejectedNotice struct {
	Reason string `json:"reason"`
}

// PollEndedNotice carries no fields on the wire.
type PollEndedNotice struct{}
