package models

import "time"

// Participant is a registered connection shown on the roster.
// ID is the connection id; a reconnect is a new participant.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
