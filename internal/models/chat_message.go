package models

import "time"

// ChatMessage is an immutable entry in the shared chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}
