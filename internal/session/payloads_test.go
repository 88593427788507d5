package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classpulse/livepoll/internal/polls"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`"30 seconds"`, 30, true},
		{`"45"`, 45, true},
		{`" 60  seconds "`, 60, true},
		{`90`, 90, true},
		{`12.9`, 12, true},
		{`"thirty seconds"`, 0, false},
		{`"0 seconds"`, 0, false},
		{`-5`, 0, false},
		{`0.5`, 0, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{``, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDuration(json.RawMessage(tt.raw))
			if !tt.ok {
				assert.ErrorIs(t, err, polls.ErrInvalidPoll)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	assert.True(t, parseTimestamp("").IsZero())
	assert.True(t, parseTimestamp("yesterday").IsZero())
	assert.Equal(t, 2026, parseTimestamp("2026-10-15T09:00:00.123Z").Year())
}

func TestCreatePollPayload_ValueAlias(t *testing.T) {
	var p createPollPayload
	assert.NoError(t, json.Unmarshal([]byte(`{"question":"Q","options":[{"value":"A"},{"text":"B","value":"ignored"}],"duration":10}`), &p))

	in, err := p.toInput()
	assert.NoError(t, err)
	assert.Equal(t, "A", in.Options[0].Text)
	assert.Equal(t, "B", in.Options[1].Text)
	assert.Equal(t, 10, in.DurationSeconds)
}
