package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/classpulse/livepoll/internal/models"
	"github.com/classpulse/livepoll/internal/polls"
)

type joinRoomPayload struct {
	Role string `json:"role"`
}

type registerPayload struct {
	Name string `json:"name"`
}

type kickPayload struct {
	ParticipantID string `json:"participantId"`
	KickedBy      string `json:"kickedBy"`
}

// optionPayload accepts both "text" and the older "value" key for the option label.
// Incoming vote counts are ignored.
type optionPayload struct {
	Text      string `json:"text"`
	Value     string `json:"value"`
	IsCorrect bool   `json:"isCorrect"`
}

type createPollPayload struct {
	Question string          `json:"question"`
	Options  []optionPayload `json:"options"`
	Duration json.RawMessage `json:"duration"`
}

type votePayload struct {
	QuestionID  string `json:"questionId"`
	OptionIndex *int   `json:"optionIndex"`
}

type chatPayload struct {
	User      string `json:"user"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type clearChatPayload struct {
	RequestedBy string `json:"requestedBy"`
}

func decode(data json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (p createPollPayload) toInput() (polls.CreateInput, error) {
	seconds, err := parseDuration(p.Duration)
	if err != nil {
		return polls.CreateInput{}, err
	}
	options := make([]models.PollOption, len(p.Options))
	for i, o := range p.Options {
		text := o.Text
		if strings.TrimSpace(text) == "" {
			text = o.Value
		}
		options[i] = models.PollOption{Text: text, IsCorrect: o.IsCorrect}
	}
	return polls.CreateInput{Question: p.Question, Options: options, DurationSeconds: seconds}, nil
}

// parseDuration reads "<N> seconds", "<N>" or a bare JSON number.
func parseDuration(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: duration is required", polls.ErrInvalidPoll)
	}

	var n float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: duration: %v", polls.ErrInvalidPoll, err)
		}
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return 0, fmt.Errorf("%w: duration is required", polls.ErrInvalidPoll)
		}
		v, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q is not a number of seconds", polls.ErrInvalidPoll, s)
		}
		n = float64(v)
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: duration: %v", polls.ErrInvalidPoll, err)
	}

	if math.IsNaN(n) || n < 1 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: duration must be a positive number of seconds", polls.ErrInvalidPoll)
	}
	return int(n), nil
}

// parseTimestamp returns the zero time unless ts is RFC 3339.
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
