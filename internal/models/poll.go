package models

import (
	"time"

	"github.com/google/uuid"
)

// PollOption is one answer of a poll. Votes only grow while the poll is active.
type PollOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Votes     int    `json:"votes"`
}

// Poll is the multiple-choice question currently owned by the coordinator.
type Poll struct {
	ID        uuid.UUID    `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	Duration  int          `json:"duration"` // seconds
	CreatedAt time.Time    `json:"createdAt"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = make([]PollOption, len(p.Options))
	copy(cp.Options, p.Options)
	return &cp
}

// TotalVotes sums votes across all options.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}

// PollRecord is a finished poll as persisted to history.
type PollRecord struct {
	ID        uuid.UUID    `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	Duration  int          `json:"duration"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewPollRecord snapshots p at time at.
func NewPollRecord(p *Poll, at time.Time) PollRecord {
	cp := p.Clone()
	return PollRecord{
		ID:        cp.ID,
		Question:  cp.Question,
		Options:   cp.Options,
		Duration:  cp.Duration,
		CreatedAt: at,
	}
}

// TimerState is the countdown broadcast to clients.
type TimerState struct {
	RemainingTime int  `json:"remainingTime"`
	IsPollActive  bool `json:"isPollActive"`
}
