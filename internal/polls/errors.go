package polls

import "errors"

var (
	// ErrInvalidPoll wraps every create-poll validation failure.
	ErrInvalidPoll = errors.New("invalid poll")
	// ErrPollNotActive is returned for votes and stops outside an active countdown.
	ErrPollNotActive = errors.New("poll is not active")
	// ErrPollNotFound is returned when a vote names a poll that is not current.
	ErrPollNotFound = errors.New("poll not found")
	// ErrOptionNotFound is returned when a vote names an option out of range.
	ErrOptionNotFound = errors.New("poll option not found")
)

// RejectedReason is the text shown to a voter whose vote arrived too late.
const RejectedReason = "Poll has ended"
